package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0
	// Лексические
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexUnterminatedChar         Code = 1004

	// Контракт макросов
	MacroInfo               Code = 4000
	MacroDeriveNoTypeName   Code = 4001
	MacroAttrNoFunctionBody Code = 4002
	MacroArgNotString       Code = 4003
	MacroArgMalformed       Code = 4004
	MacroUnknown            Code = 4005
	MacroKindMismatch       Code = 4006
	MacroDefaultUsed        Code = 4007
	MacroDuplicateArg       Code = 4008
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexUnterminatedChar:         "Unterminated character literal",
	MacroInfo:                   "Macro expansion information",
	MacroDeriveNoTypeName:       "Derive input has no struct or enum name",
	MacroAttrNoFunctionBody:     "Attribute input has no function body",
	MacroArgNotString:           "Macro argument is not a string literal",
	MacroArgMalformed:           "Malformed macro argument list",
	MacroUnknown:                "Unknown macro",
	MacroKindMismatch:           "Macro kind mismatch",
	MacroDefaultUsed:            "Default value substituted",
	MacroDuplicateArg:           "Duplicate macro argument",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("MAC%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
