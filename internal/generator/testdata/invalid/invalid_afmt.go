//go:build afmt

package invalid

import (
	"github.com/conneroisu/afmt/pkg/afmt"
	"github.com/conneroisu/afmt/pkg/bstr"
)

//afmt:into dst, "You are {age} years old!"
func Small(dst *bstr.Array[[4]byte], age uint8) {
	afmt.Stub()
}

//afmt:format "{}", label
func Wrong(label string) string {
	return label
}

//afmt:format "{missing}"
func Unknown() afmt.Pending {
	return afmt.Stub()
}
