package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"chatbot-gateway/internal/bot"
	"chatbot-gateway/internal/config"
	"chatbot-gateway/internal/models"
)

type stubConfig struct{ instance *models.Instance }

func (s *stubConfig) InstanceByName(ctx context.Context, name string) (*models.Instance, error) {
	if s.instance != nil && s.instance.Name == name {
		return s.instance, nil
	}
	return nil, nil
}

func (s *stubConfig) MenuByKey(ctx context.Context, instanceID uint, key string) (*models.Menu, error) {
	return &models.Menu{InstanceID: instanceID, MenuKey: key, Title: "Menu", MessageText: "Olá"}, nil
}

func (s *stubConfig) Triggers(ctx context.Context, instanceID uint) ([]models.GlobalTrigger, error) {
	return nil, nil
}

func (s *stubConfig) OptionBySelectionID(ctx context.Context, instanceID uint, selectionID string) (*models.MenuOption, error) {
	return nil, nil
}

func (s *stubConfig) Variables(ctx context.Context, instanceID uint) (map[string]string, error) {
	return nil, nil
}

type stubContacts struct{}

func (s *stubContacts) GetOrCreate(ctx context.Context, instanceID uint, phoneNumber, name string) (*models.Contact, error) {
	return &models.Contact{InstanceID: instanceID, Phone: phoneNumber, CurrentMenuKey: "main", NavigationStack: "[]"}, nil
}

func (s *stubContacts) Save(ctx context.Context, contact *models.Contact) error { return nil }

type stubLogs struct{}

func (s *stubLogs) Append(ctx context.Context, entry *models.MessageLog) error { return nil }

type stubDispatcher struct{ sent int }

func (s *stubDispatcher) Dispatch(ctx context.Context, instance *models.Instance, recipient string, resp *bot.Response) error {
	s.sent++
	return nil
}

func newTestRouter(dispatcher *stubDispatcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{DefaultInstance: "default"}
	engine := bot.NewEngine(
		&stubConfig{instance: &models.Instance{ID: 1, Name: "default", BotEnabled: true}},
		&stubContacts{},
		&stubLogs{},
		dispatcher,
	)
	h := NewHandler(cfg, engine, nil)
	r := gin.New()
	r.GET("/webhook", h.VerifyWebhook)
	r.POST("/webhook", h.HandleMessage)
	return r
}

func post(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleMessageTextReply(t *testing.T) {
	dispatcher := &stubDispatcher{}
	r := newTestRouter(dispatcher)

	body := `{"event":"messages.upsert","instance":"default","data":{"key":{"remoteJid":"5511999999999@s.whatsapp.net","fromMe":false},"pushName":"Ana","message":{"conversation":"oi"}}}`
	w := post(t, r, body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"replied"`) {
		t.Errorf("body = %s, want replied outcome", w.Body.String())
	}
	if dispatcher.sent != 1 {
		t.Errorf("dispatched %d messages, want 1", dispatcher.sent)
	}
}

func TestHandleMessageIgnoresOwnMessages(t *testing.T) {
	dispatcher := &stubDispatcher{}
	r := newTestRouter(dispatcher)

	body := `{"event":"messages.upsert","instance":"default","data":{"key":{"remoteJid":"5511999999999@s.whatsapp.net","fromMe":true},"message":{"conversation":"oi"}}}`
	w := post(t, r, body)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even for ignored events", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ignored"`) {
		t.Errorf("body = %s, want ignored outcome", w.Body.String())
	}
	if dispatcher.sent != 0 {
		t.Errorf("own message triggered %d sends", dispatcher.sent)
	}
}

func TestHandleMessageBadJSON(t *testing.T) {
	r := newTestRouter(&stubDispatcher{})
	w := post(t, r, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestNormalizeListSelection(t *testing.T) {
	raw := `{"event":"messages.upsert","instance":"default","data":{"key":{"remoteJid":"5511999999999@s.whatsapp.net"},"message":{"listResponseMessage":{"title":"Planos","singleSelectReply":{"selectedRowId":"opt_plans"}}}}}`
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	in := normalize(p)
	if in.SelectionID != "opt_plans" {
		t.Errorf("selection id = %q, want opt_plans", in.SelectionID)
	}
	if in.Text != "Planos" {
		t.Errorf("text = %q, want the row title", in.Text)
	}
}

func TestNormalizeExtendedText(t *testing.T) {
	raw := `{"data":{"message":{"extendedTextMessage":{"text":"bom dia"}}}}`
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if in := normalize(p); in.Text != "bom dia" {
		t.Errorf("text = %q, want bom dia", in.Text)
	}
}
