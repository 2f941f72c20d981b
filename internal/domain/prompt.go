package domain

// Names of the fields a generation request carries to LLMClient.Generate.
const (
	FieldText    = "text"
	FieldHistory = "history"
	FieldChannel = "channel"
	FieldUserID  = "user_id"
	FieldContext = "context"
	FieldCatalog = "catalog"
)
