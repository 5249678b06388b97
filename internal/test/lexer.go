// Package test holds fixtures shared by more than one package's test
// suite — currently just a random-token source generator used to probe
// internal/lexer's totality guarantee (no input should ever panic it).
package test

import (
	"math/rand"
	"strings"
)

const validTokens = "fn;let;mut;struct;use;if;else;while;for;match;return;(;);{;};[;];+;-;*;/;%;==;!=;<;<=;>;>=;&&;||;=;&;<-;->;=>;::;..;,;:;;;\"a string\";\"unterminated;'a';'\\n';123;45.6;i32;u64;f64;true;false;null;identifier;//a comment\n;/*a block comment*/;\xc3\xa9clair;\n"

// GetRandomTokens returns size space-separated fragments drawn from a
// small vocabulary of valid and deliberately-malformed lexemes.
func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

// GetRandomTokensWithSep is GetRandomTokens with a caller-chosen separator,
// useful for probing whether the separator itself confuses the lexer.
func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
