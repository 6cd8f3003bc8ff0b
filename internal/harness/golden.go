package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderCompiled renders compiled cases as the golden file body: one
// "-- <name>" header line followed by the SQL text per case.
func RenderCompiled(compiled []CompiledCase) []byte {
	var buf bytes.Buffer
	for _, c := range compiled {
		fmt.Fprintf(&buf, "-- %s\n%s\n", c.Name, c.SQL)
	}
	return buf.Bytes()
}

// AssertGolden compiles a scenario and compares the rendered SQL
// against the golden file testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if compilation fails; a golden mismatch fails the
// test via goldie.
func AssertGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	compiled, err := scenario.Compile()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, RenderCompiled(compiled))

	return nil
}
