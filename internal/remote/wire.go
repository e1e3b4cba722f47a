package remote

import (
	"encoding/json"
	"time"

	"github.com/iudanet/listingsync/internal/models"
)

// Airtable REST wire format

type wireRecord struct {
	Fields      map[string]any `json:"fields"`
	ID          string         `json:"id,omitempty"`
	CreatedTime string         `json:"createdTime,omitempty"`
}

type listResponse struct {
	Offset  string       `json:"offset,omitempty"`
	Records []wireRecord `json:"records"`
}

type writeRequest struct {
	Records  []wireRecord `json:"records"`
	Typecast bool         `json:"typecast"`
}

type writeResponse struct {
	Records []wireRecord `json:"records"`
}

type tablesResponse struct {
	Tables []Table `json:"tables"`
}

type uploadRequest struct {
	ContentType string `json:"contentType"`
	File        string `json:"file"`
	Filename    string `json:"filename"`
}

// errorBody ошибка Airtable бывает двух видов:
// {"error": {"type": "...", "message": "..."}} и {"error": "NOT_FOUND"}
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func parseErrorBody(body []byte) (errType, message string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Error) == 0 {
		return "", string(body)
	}

	var detail errorDetail
	if err := json.Unmarshal(eb.Error, &detail); err == nil {
		return detail.Type, detail.Message
	}

	var code string
	if err := json.Unmarshal(eb.Error, &code); err == nil {
		return code, code
	}

	return "", string(body)
}

// toRecord переводит запись Airtable в models.Record.
// Поле времени изменения поднимается из Fields в ModifiedAt.
func toRecord(w wireRecord, lastModifiedField string) *models.Record {
	rec := &models.Record{
		RemoteID: w.ID,
		Fields:   make(map[string]any, len(w.Fields)),
	}

	if ts, err := time.Parse(time.RFC3339, w.CreatedTime); err == nil {
		rec.CreatedAt = ts.UTC()
	}

	for name, value := range w.Fields {
		if name == lastModifiedField {
			if s, ok := value.(string); ok {
				if ts, err := time.Parse(time.RFC3339, s); err == nil {
					rec.ModifiedAt = ts.UTC()
				}
			}
			continue
		}
		if value == nil {
			continue
		}
		rec.Fields[name] = value
	}

	if rec.ModifiedAt.IsZero() {
		rec.ModifiedAt = rec.CreatedAt
	}

	return rec
}

// ParseAttachments decodes the value of an attachment field.
// Unknown shapes yield no attachments.
func ParseAttachments(v any) []Attachment {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]Attachment, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		a := Attachment{}
		a.ID, _ = m["id"].(string)
		a.URL, _ = m["url"].(string)
		a.Filename, _ = m["filename"].(string)
		a.Type, _ = m["type"].(string)
		switch size := m["size"].(type) {
		case float64:
			a.Size = int64(size)
		case int64:
			a.Size = size
		case int:
			a.Size = int64(size)
		}
		if a.ID == "" {
			continue
		}
		out = append(out, a)
	}

	return out
}

// AttachmentValue encodes attachments the way the remote returns them.
func AttachmentValue(atts []Attachment) []any {
	out := make([]any, 0, len(atts))
	for _, a := range atts {
		out = append(out, map[string]any{
			"id":       a.ID,
			"url":      a.URL,
			"filename": a.Filename,
			"type":     a.Type,
			"size":     float64(a.Size),
		})
	}
	return out
}
