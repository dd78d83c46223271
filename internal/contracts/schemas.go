package contracts

import (
	"encoding/json"
	"fmt"
	"log"

	"import-claim-service/schemas"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Ключи скомпилированных схем: "<Title>/<version>".
const (
	PayloadListingDetail      = "ListingDetailPayload/1.0.0"
	EventImportBatchCompleted = "ImportBatchCompletedEvent/1.0.0"
	EventPropertyClaimed      = "PropertyClaimedEvent/1.0.0"
)

var compiledSchemas = make(map[string]*jsonschema.Schema)

func init() {
	paths := map[string]string{
		PayloadListingDetail:      "payloads/listing-detail/v1.json",
		EventImportBatchCompleted: "events/import-batch-completed/v1.json",
		EventPropertyClaimed:      "events/property-claimed/v1.json",
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	for key, path := range paths {
		f, err := schemas.FS.Open(path)
		if err != nil {
			log.Fatalf("failed to open embedded schema %s: %v", path, err)
		}
		if err := compiler.AddResource(path, f); err != nil {
			log.Fatalf("failed to add schema resource %s: %v", path, err)
		}
		schema, err := compiler.Compile(path)
		if err != nil {
			log.Fatalf("failed to compile schema %s: %v", path, err)
		}
		compiledSchemas[key] = schema
	}
}

// ValidatePayload проверяет тело ответа внешнего API по схеме.
func ValidatePayload(key string, body []byte) error {
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema '%s' not found", key)
	}

	// распарсить JSON в универсальный тип interface{}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		// Если это невалидный JSON, валидация по схеме невозможна
		return fmt.Errorf("payload is not a valid JSON: %w", err)
	}

	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}

	return nil
}

// ValidateEvent принимает тело сообщения и его метаданные и проверяет по схеме
func ValidateEvent(eventType, eventVersion string, body []byte) error {
	return ValidatePayload(fmt.Sprintf("%s/%s", eventType, eventVersion), body)
}
