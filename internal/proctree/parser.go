package proctree

import (
	"fmt"
	"strings"
)

// DefaultMaxArguments caps the argument vector of a node in argument-vector mode.
const DefaultMaxArguments = 10

const (
	commandModeNameConstant    = "name"
	commandModeArgvConstant    = "argv"
	grammarStrictConstant      = "strict"
	grammarLenientConstant     = "lenient"
	expectedTreeConstant       = "command or @"
	expectedSeparatorConstant  = "','"
	expectedCloseConstant      = "']'"
	expectedEndConstant        = "end of expression"
	unknownCommandModeTemplate = "unsupported command mode: %q"
	unknownGrammarTemplate     = "unsupported grammar: %q"
)

// CommandMode selects how a WORD token becomes a node command.
type CommandMode string

// Supported command modes.
const (
	CommandModeName CommandMode = CommandMode(commandModeNameConstant)
	CommandModeArgv CommandMode = CommandMode(commandModeArgvConstant)
)

// ParseCommandMode converts user input into a CommandMode.
func ParseCommandMode(value string) (CommandMode, error) {
	switch normalized := CommandMode(strings.ToLower(strings.TrimSpace(value))); normalized {
	case CommandModeName, CommandModeArgv:
		return normalized, nil
	default:
		return "", fmt.Errorf(unknownCommandModeTemplate, value)
	}
}

// GrammarPolicy selects how malformed groups are treated.
type GrammarPolicy string

// Supported grammar policies.
const (
	// GrammarStrict discards a node whose group is not closed and rejects trailing tokens.
	GrammarStrict GrammarPolicy = GrammarPolicy(grammarStrictConstant)
	// GrammarLenient keeps a node whose group is missing its comma or closing bracket.
	GrammarLenient GrammarPolicy = GrammarPolicy(grammarLenientConstant)
)

// ParseGrammarPolicy converts user input into a GrammarPolicy.
func ParseGrammarPolicy(value string) (GrammarPolicy, error) {
	switch normalized := GrammarPolicy(strings.ToLower(strings.TrimSpace(value))); normalized {
	case GrammarStrict, GrammarLenient:
		return normalized, nil
	default:
		return "", fmt.Errorf(unknownGrammarTemplate, value)
	}
}

// ParseOptions configure a parse.
type ParseOptions struct {
	CommandMode  CommandMode
	Grammar      GrammarPolicy
	MaxArguments int
}

// DefaultParseOptions returns single-name mode with the strict grammar.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{
		CommandMode:  CommandModeName,
		Grammar:      GrammarStrict,
		MaxArguments: DefaultMaxArguments,
	}
}

func (options ParseOptions) sanitize() ParseOptions {
	sanitized := options
	if len(sanitized.CommandMode) == 0 {
		sanitized.CommandMode = CommandModeName
	}
	if len(sanitized.Grammar) == 0 {
		sanitized.Grammar = GrammarStrict
	}
	if sanitized.MaxArguments <= 0 {
		sanitized.MaxArguments = DefaultMaxArguments
	}
	return sanitized
}

// Parse builds a tree from a bracket-notation expression. A nil node with a nil
// error is the empty tree (`@`). On failure no partial tree is returned.
func Parse(input string, options ParseOptions) (*Node, error) {
	parser := &treeParser{lexer: NewLexer(input), options: options.sanitize()}

	root, parseError := parser.parseTree()
	if parseError != nil {
		return nil, parseError
	}

	if parser.options.Grammar == GrammarStrict {
		if trailing, exists := parser.lexer.Peek(); exists {
			return nil, &ParseError{Kind: ErrTrailingInput, Position: trailing.Position, Found: trailing.Text, Expected: expectedEndConstant}
		}
	}

	return root, nil
}

// SplitArguments splits a word on whitespace, keeping at most maxArguments
// fields. Fields past the cap are dropped.
func SplitArguments(word string, maxArguments int) []string {
	fields := strings.Fields(word)
	if maxArguments > 0 && len(fields) > maxArguments {
		fields = fields[:maxArguments]
	}
	return fields
}

type treeParser struct {
	lexer   *Lexer
	options ParseOptions
}

func (parser *treeParser) parseTree() (*Node, error) {
	token, available := parser.lexer.Next()
	if !available {
		return nil, &ParseError{Kind: ErrUnexpectedEnd, Position: token.Position, Expected: expectedTreeConstant}
	}

	switch token.Kind {
	case TokenEmpty:
		return nil, nil
	case TokenWord:
	default:
		return nil, &ParseError{Kind: ErrMalformedGroup, Position: token.Position, Found: token.Text, Expected: expectedTreeConstant}
	}

	node := &Node{Command: parser.buildCommand(token.Text)}

	lookahead, available := parser.lexer.Peek()
	if !available || lookahead.Kind != TokenOpen {
		return node, nil
	}
	parser.lexer.Next()

	left, leftError := parser.parseTree()
	if leftError != nil {
		return nil, leftError
	}
	node.Left = left

	if !parser.expect(TokenSeparator) {
		return parser.malformed(node, expectedSeparatorConstant)
	}

	right, rightError := parser.parseTree()
	if rightError != nil {
		return nil, rightError
	}
	node.Right = right

	if !parser.expect(TokenClose) {
		return parser.malformed(node, expectedCloseConstant)
	}

	return node, nil
}

// expect consumes the next token only when it has the wanted kind.
func (parser *treeParser) expect(kind TokenKind) bool {
	token, available := parser.lexer.Peek()
	if available && token.Kind == kind {
		parser.lexer.Next()
		return true
	}
	return false
}

func (parser *treeParser) malformed(node *Node, expected string) (*Node, error) {
	if parser.options.Grammar == GrammarLenient {
		return node, nil
	}

	// The partially built node is dropped here; nothing else references it.
	token, _ := parser.lexer.Peek()
	return nil, &ParseError{Kind: ErrMalformedGroup, Position: token.Position, Found: token.Text, Expected: expected}
}

func (parser *treeParser) buildCommand(word string) Command {
	if parser.options.CommandMode != CommandModeArgv {
		return Command{Name: word}
	}

	fields := SplitArguments(word, parser.options.MaxArguments)
	return Command{Name: fields[0], Arguments: fields[1:]}
}
