package proctree_test

import (
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/ptree/internal/proctree"
)

func TestOutlineGolden(testInstance *testing.T) {
	root, parseError := proctree.Parse("a[b[c,@],d[@,echo hi]]", proctree.ParseOptions{CommandMode: proctree.CommandModeArgv})
	require.NoError(testInstance, parseError)

	golden := goldie.New(
		testInstance,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)
	golden.Assert(testInstance, "outline", []byte(proctree.Outline(root)))
}

func TestOutlineEmptyTree(testInstance *testing.T) {
	require.Equal(testInstance, "@\n", proctree.Outline(nil))
}

func TestSnapshotDocumentRoundTrip(testInstance *testing.T) {
	root, parseError := proctree.Parse("echo one[ls -l,wc[@,pwd]]", proctree.ParseOptions{CommandMode: proctree.CommandModeArgv})
	require.NoError(testInstance, parseError)

	snapshot := proctree.NewSnapshot(root)
	require.Equal(testInstance, 4, snapshot.NodeCount)
	require.Equal(testInstance, 3, snapshot.Depth)
	require.Equal(testInstance, "echo one[ls -l,wc[@,pwd]]", snapshot.Expression)

	document, encodeError := snapshot.MarshalDocument()
	require.NoError(testInstance, encodeError)
	require.Contains(testInstance, string(document), "node_count: 4")

	var decoded proctree.Snapshot
	require.NoError(testInstance, yaml.Unmarshal(document, &decoded))
	require.Equal(testInstance, snapshot.Expression, decoded.Expression)
	require.Equal(testInstance, snapshot.NodeCount, decoded.NodeCount)
	require.Equal(testInstance, "echo", decoded.Root.Command)
	require.Equal(testInstance, []string{"one"}, decoded.Root.Arguments)
	require.Equal(testInstance, []string{"-l"}, decoded.Root.Left.Arguments)
	require.Nil(testInstance, decoded.Root.Right.Left)
	require.Equal(testInstance, "pwd", decoded.Root.Right.Right.Command)
}
