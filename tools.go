//go:build tools

package tools

// CLI tools are run at pinned versions instead of being tracked in go.mod:
//
//	go run github.com/matryer/moq@v0.5.3          regenerates *_mock_test.go
//	go run github.com/pressly/goose/v3/cmd/goose@v3.26.0 -dir migrations/postgres create <name> sql
//
// Migrations are applied by cmd/migrate, which embeds the same goose library.
