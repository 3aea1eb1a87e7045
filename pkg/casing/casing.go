// Package casing converts identifier names between snake_case and
// CamelCase.
package casing

import "github.com/iancoleman/strcase"

// SnakeToCamel converts "send_message" to "SendMessage".
func SnakeToCamel(s string) string {
	return strcase.ToCamel(s)
}

// SnakeToLowerCamel converts "send_message" to "sendMessage".
func SnakeToLowerCamel(s string) string {
	return strcase.ToLowerCamel(s)
}

// CamelToSnake converts "SendMessage" to "send_message".
func CamelToSnake(s string) string {
	return strcase.ToSnake(s)
}
