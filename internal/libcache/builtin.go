package libcache

import "jaivals/internal/token"

// ConvertFile is the library file whose declarations are built in rather than parsed.
const ConvertFile = "convert.jiv"

// DefaultFiles are the library files under the library directory.
var DefaultFiles = []string{"arrays.jiv", ConvertFile}

// convertTree returns the fixed declarations of convert.jiv.
func convertTree() []token.Node {
	return []token.Node{
		&token.Function{
			Header: token.Header{
				Type:    token.TFunction,
				Name:    token.FuncRefPrefix + "stringToNum",
				Line:    token.GlobalLine,
				ToolTip: "converts a string to a number",
				Export:  true,
			},
			Params: []token.Param{{Name: "number"}},
		},
		&token.Function{
			Header: token.Header{
				Type:    token.TFunction,
				Name:    token.FuncRefPrefix + "numToString",
				Line:    token.GlobalLine,
				ToolTip: "converts a number to a string",
				Export:  true,
			},
			Params: []token.Param{{Name: "string"}},
		},
	}
}
