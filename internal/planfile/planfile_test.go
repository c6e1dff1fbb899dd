package planfile

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasimrehman05/superdoc-sub008/internal/plan"
)

func compilePlan(t *testing.T, src string) (*PlanFile, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompilePlanFile(v.LookupPath(cue.ParsePath("plan")))
}

func TestCompilePlanFileBasic(t *testing.T) {
	pf, err := compilePlan(t, `
plan: {
	name:     "tighten-wording"
	document: "contract.json"
	steps: [
		{
			id: "s1"
			op: "text.rewrite"
			where: {
				text:       "net 30 days"
				occurrence: 1
				within: blockId: "sec-2"
			}
			args: {
				text: "net 45 days"
				style: mode: "preserve"
			}
		},
		{
			op: "assert"
			where: text: "net 45 days"
			expect: count: 1
		},
	]
}
`)
	require.NoError(t, err)

	assert.Equal(t, "tighten-wording", pf.Name)
	assert.Equal(t, "contract.json", pf.Document)
	require.Len(t, pf.Steps, 2)

	s1 := pf.Steps[0]
	assert.Equal(t, "s1", s1.ID)
	assert.Equal(t, plan.OpTextRewrite, s1.Op)
	require.NotNil(t, s1.Where)
	assert.Equal(t, "net 30 days", s1.Where.Text)
	assert.Equal(t, 1, s1.Where.Occurrence)
	require.NotNil(t, s1.Where.Within)
	assert.Equal(t, "sec-2", s1.Where.Within.BlockID)
	assert.Equal(t, "net 45 days", s1.Args.Text)
	require.NotNil(t, s1.Args.Style)
	assert.Equal(t, plan.StylePreserve, s1.Args.Style.Mode)

	s2 := pf.Steps[1]
	assert.True(t, s2.IsAssert())
	require.NotNil(t, s2.Expect)
	require.NotNil(t, s2.Expect.Count)
	assert.Equal(t, 1, *s2.Expect.Count)
}

func TestCompilePlanFileMarks(t *testing.T) {
	pf, err := compilePlan(t, `
plan: steps: [{
	op: "format.apply"
	where: text: "effective date"
	args: {
		marks: [
			{type: "bold"},
			{type: "textStyle", attrs: color: "#FF0000"},
		]
		removeMarks: ["italic"]
	}
}]
`)
	require.NoError(t, err)

	args := pf.Steps[0].Args
	require.Len(t, args.Marks, 2)
	assert.Equal(t, "bold", args.Marks[0].Type)
	assert.Equal(t, "textStyle", args.Marks[1].Type)
	assert.Equal(t, "#FF0000", args.Marks[1].Attrs["color"])
	assert.Equal(t, []string{"italic"}, args.RemoveMarks)
}

func TestCompilePlanFileCreateHeading(t *testing.T) {
	pf, err := compilePlan(t, `
plan: steps: [{
	op: "create.heading"
	where: blockId: "intro"
	args: {
		text:     "Background"
		position: "before"
		level:    2
		attrs: align: "center"
	}
}]
`)
	require.NoError(t, err)

	args := pf.Steps[0].Args
	assert.Equal(t, "Background", args.Text)
	assert.Equal(t, "before", args.Position)
	assert.Equal(t, 2, args.Level)
	assert.Equal(t, "center", args.Attrs["align"])
}

func TestCompilePlanFileErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"no steps", `plan: name: "x"`, "steps is required"},
		{"empty steps", `plan: steps: []`, "at least one step"},
		{"missing op", `plan: steps: [{where: text: "x"}]`, "op is required"},
		{"empty where", `plan: steps: [{op: "assert", where: {}, expect: count: 1}]`, "where needs"},
		{"bad occurrence", `plan: steps: [{op: "text.rewrite", where: {text: "x", occurrence: 0}}]`, "occurrence"},
		{"empty within", `plan: steps: [{op: "text.rewrite", where: {text: "x", within: {}}}]`, "within needs"},
		{"bad style mode", `plan: steps: [{op: "text.rewrite", where: text: "x", args: style: mode: "invert"}]`, "unknown style mode"},
		{"set without marks", `plan: steps: [{op: "text.rewrite", where: text: "x", args: style: mode: "set"}]`, "needs marks"},
		{"bad require", `plan: steps: [{op: "assert", where: text: "x", expect: require: "some"}]`, "unknown require mode"},
		{"empty expect", `plan: steps: [{op: "assert", where: text: "x", expect: {}}]`, "expect needs"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := compilePlan(t, tc.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
plan: {
	name: "from-disk"
	steps: [{
		op: "text.rewrite"
		where: text: "old"
		args: text: "new"
	}]
}
`), 0o644))

	pf, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "from-disk", pf.Name)
	require.Len(t, pf.Steps, 1)
	assert.Equal(t, plan.OpTextRewrite, pf.Steps[0].Op)
}

func TestLoadFileMissingPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.cue")
	require.NoError(t, os.WriteFile(path, []byte(`other: 1`), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no top-level plan")
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta.cue"), []byte(`
plan: name: "split"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "steps.cue"), []byte(`
plan: steps: [{
	op: "assert"
	where: nodeType: "paragraph"
	expect: require: "all"
}]
`), 0o644))

	pf, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "split", pf.Name)
	require.Len(t, pf.Steps, 1)
	assert.Equal(t, plan.RequireAll, pf.Steps[0].Expect.Require)
}

func TestLoadDirEmpty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CUE files")
}
