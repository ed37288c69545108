//go:build afmt

package broken

import "github.com/conneroisu/afmt/pkg/afmt"

//afmt:format "{}", missing
func Broken() afmt.Pending {
	return undefinedStub()
}
