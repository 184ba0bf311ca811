package token

// Kind represents the category of a fragment token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the fragment.
	EOF

	// Ident represents an identifier token.
	Ident
	// KwFn represents the 'fn' keyword.
	KwFn // fn
	// KwStruct represents the 'struct' keyword.
	KwStruct // struct
	// KwEnum represents the 'enum' keyword.
	KwEnum // enum

	// StringLit represents a double-quoted string literal.
	StringLit
	// CharLit represents a single-quoted character literal.
	CharLit
	// NumberLit represents an integer or float literal.
	NumberLit
	// Lifetime represents a lifetime label such as 'a.
	Lifetime

	Hash      // #
	Bang      // !
	Assign    // =
	Comma     // ,
	Semicolon // ;
	Colon     // :
	Dot       // .
	Lt        // <
	Gt        // >
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	LBracket  // [
	RBracket  // ]
	// Punct is any other single-byte ASCII punctuation (+, -, &, |, ...).
	Punct
)

var kindNames = [...]string{
	Invalid:   "Invalid",
	EOF:       "EOF",
	Ident:     "Ident",
	KwFn:      "KwFn",
	KwStruct:  "KwStruct",
	KwEnum:    "KwEnum",
	StringLit: "StringLit",
	CharLit:   "CharLit",
	NumberLit: "NumberLit",
	Lifetime:  "Lifetime",
	Hash:      "Hash",
	Bang:      "Bang",
	Assign:    "Assign",
	Comma:     "Comma",
	Semicolon: "Semicolon",
	Colon:     "Colon",
	Dot:       "Dot",
	Lt:        "Lt",
	Gt:        "Gt",
	LParen:    "LParen",
	RParen:    "RParen",
	LBrace:    "LBrace",
	RBrace:    "RBrace",
	LBracket:  "LBracket",
	RBracket:  "RBracket",
	Punct:     "Punct",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(?)"
}

var punctKinds = map[byte]Kind{
	'#': Hash,
	'!': Bang,
	'=': Assign,
	',': Comma,
	';': Semicolon,
	':': Colon,
	'.': Dot,
	'<': Lt,
	'>': Gt,
	'(': LParen,
	')': RParen,
	'{': LBrace,
	'}': RBrace,
	'[': LBracket,
	']': RBracket,
}

// LookupPunct returns the dedicated kind for a punctuation byte.
// Bytes without a dedicated kind map to Punct.
func LookupPunct(b byte) Kind {
	if k, ok := punctKinds[b]; ok {
		return k
	}
	return Punct
}
