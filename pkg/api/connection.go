package api

// ConnectionTestRequest ad hoc учетные данные для проверки подключения
type ConnectionTestRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	BaseID      string `json:"base_id" validate:"required"`
	TableName   string `json:"table_name"`
}

// ConnectionTestResponse итог проверки подключения
type ConnectionTestResponse struct {
	Error      string   `json:"error,omitempty"`
	Tables     []string `json:"tables"`
	StatusCode int      `json:"status_code,omitempty"`
	Success    bool     `json:"success"`
}

// Connection конфигурация подключения к remote store.
// В ответах секреты заменены на "***"
type Connection struct {
	AccessToken       string `json:"access_token"`
	BaseID            string `json:"base_id"`
	TableName         string `json:"table_name"`
	APIURL            string `json:"api_url,omitempty"`
	ContentURL        string `json:"content_url,omitempty"`
	LastModifiedField string `json:"last_modified_field,omitempty"`
	WebhookSecret     string `json:"webhook_secret,omitempty"`
	BatchSize         int    `json:"batch_size"`
	RateLimitDelay    int64  `json:"rate_limit_delay"` // наносекунды
}

// SchemaField колонка remote таблицы
type SchemaField struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// SchemaResponse поля remote таблицы и их сопоставление с field mapping
type SchemaResponse struct {
	TableID    string        `json:"table_id"`
	TableName  string        `json:"table_name"`
	Fields     []SchemaField `json:"fields"`
	Unmapped   []string      `json:"unmapped"`
	Missing    []string      `json:"missing"`
	FieldCount int           `json:"field_count"`
}

// FieldSpec описание одного поля
type FieldSpec struct {
	Name      string `json:"name" validate:"required,fieldname"`
	Category  string `json:"category" validate:"required,category"`
	MediaType string `json:"media_type,omitempty"`
	Label     string `json:"label,omitempty"`
}

// FieldMappingRequest новый field mapping
type FieldMappingRequest struct {
	Fields []FieldSpec `json:"fields" validate:"required,min=1,dive"`
}

// FieldMappingResponse итог обновления field mapping
type FieldMappingResponse struct {
	Accepted int `json:"accepted"`
}
