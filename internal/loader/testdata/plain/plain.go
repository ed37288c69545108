package plain

// Answer has nothing to generate.
const Answer = 42
