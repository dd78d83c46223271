// Package schemas содержит JSON-схемы для событий и ответов внешнего API.
// Схемы встраиваются в бинарник, чтобы сервис не зависел от рабочей директории.
package schemas

import "embed"

//go:embed events/*/v1.json payloads/*/v1.json
var FS embed.FS
