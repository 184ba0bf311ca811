package token

var keywords = map[string]Kind{
	"fn":     KwFn,
	"struct": KwStruct,
	"enum":   KwEnum,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые: "Struct" остаётся идентификатором.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
