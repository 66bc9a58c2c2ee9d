package htmlutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{input: "  85.5 ", expected: "85.5"},
		{input: " ", expected: ""},
		{input: "&nbsp;", expected: ""},
		{input: "Data\n\t Structures", expected: "Data Structures"},
		{input: "85%25", expected: "85%"},
		{input: "Operating%20Systems", expected: "Operating Systems"},
		{input: "100%", expected: "100%"},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CleanText(test.input), "input %q", test.input)
	}
}

func TestSelectionText(t *testing.T) {
	doc, err := ParseDocument([]byte(`<table><tr>
		<td>  <a href="#">Maths</a>&nbsp;<script>var x = 1;</script></td>
		<td>II</td>
	</tr></table>`))
	require.NoError(t, err)

	require.Equal(t, "Maths", SelectionText(doc.Find("td").First()))
	require.Equal(t, "Maths II", SelectionText(doc.Find("td")))
}
