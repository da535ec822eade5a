// redact маскирует секреты перед записью в логи.
package redact

// Token оставляет только короткий префикс токена, чтобы по логам можно было
// сопоставить запросы, не раскрывая сам секрет.
func Token(s string) string {
	if len(s) <= 8 {
		return "[REDACTED_TOKEN]"
	}

	return s[:4] + "…[REDACTED_TOKEN]"
}

func Password() string { return "[REDACTED_PASSWORD]" }
