package bot

import (
	"context"
	"errors"
	"testing"

	"chatbot-gateway/internal/models"
)

// --- fakes ---

type fakeConfig struct {
	instance *models.Instance
	menus    map[string]*models.Menu
	triggers []models.GlobalTrigger
	globals  map[string]*models.MenuOption // cross-menu selection lookup
	vars     map[string]string
}

func (f *fakeConfig) InstanceByName(ctx context.Context, name string) (*models.Instance, error) {
	if f.instance == nil || f.instance.Name != name {
		return nil, errors.New("not found")
	}
	return f.instance, nil
}

func (f *fakeConfig) MenuByKey(ctx context.Context, instanceID uint, key string) (*models.Menu, error) {
	m, ok := f.menus[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return m, nil
}

func (f *fakeConfig) Triggers(ctx context.Context, instanceID uint) ([]models.GlobalTrigger, error) {
	return f.triggers, nil
}

func (f *fakeConfig) OptionBySelectionID(ctx context.Context, instanceID uint, selectionID string) (*models.MenuOption, error) {
	o, ok := f.globals[selectionID]
	if !ok {
		return nil, errors.New("not found")
	}
	return o, nil
}

func (f *fakeConfig) Variables(ctx context.Context, instanceID uint) (map[string]string, error) {
	return f.vars, nil
}

type fakeContacts struct {
	contact *models.Contact
	saves   int
}

func (f *fakeContacts) GetOrCreate(ctx context.Context, instanceID uint, phoneNumber, name string) (*models.Contact, error) {
	if f.contact == nil {
		f.contact = &models.Contact{
			InstanceID:      instanceID,
			Phone:           phoneNumber,
			Name:            name,
			CurrentMenuKey:  HomeMenuKey,
			NavigationStack: "[]",
		}
	}
	return f.contact, nil
}

func (f *fakeContacts) Save(ctx context.Context, contact *models.Contact) error {
	f.saves++
	contact.InteractionCount++
	return nil
}

type fakeLogs struct {
	entries []models.MessageLog
}

func (f *fakeLogs) Append(ctx context.Context, entry *models.MessageLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

type fakeDispatcher struct {
	sent []Response
	err  error
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, instance *models.Instance, recipient string, resp *Response) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, *resp)
	return nil
}

// --- fixture ---

func demoMenus() map[string]*models.Menu {
	return map[string]*models.Menu{
		"main": {
			ID: 1, MenuKey: "main", Title: "Menu principal",
			MessageText: "Olá {nome}, escolha uma opção:",
			Options: []models.MenuOption{
				{ID: 10, MenuID: 1, OptionNumber: 1, OptionText: "Planos", ListID: "opt_plans", Keywords: "plano, planos", ActionType: "menu", TargetMenuKey: "plans"},
				{ID: 11, MenuID: 1, OptionNumber: 2, OptionText: "Falar com atendente", ListID: "opt_human", Keywords: "atendente", ActionType: "human"},
			},
		},
		"plans": {
			ID: 2, MenuKey: "plans", Title: "Planos",
			MessageText: "Nossos planos a partir de {preco}:",
			Options: []models.MenuOption{
				{ID: 20, MenuID: 2, OptionNumber: 1, OptionText: "Plano mensal", ListID: "opt_monthly", ActionType: "message", ResponseText: "O plano mensal custa {preco}."},
			},
		},
	}
}

func newTestEngine() (*Engine, *fakeConfig, *fakeContacts, *fakeLogs, *fakeDispatcher) {
	cfg := &fakeConfig{
		instance: &models.Instance{ID: 1, Name: "default", BotEnabled: true, IgnoreGroups: true, UseListMessages: true, FallbackMessage: "Não entendi."},
		menus:    demoMenus(),
		globals:  map[string]*models.MenuOption{},
		vars:     map[string]string{"preco": "R$ 25"},
	}
	contacts := &fakeContacts{}
	logs := &fakeLogs{}
	dispatcher := &fakeDispatcher{}
	return NewEngine(cfg, contacts, logs, dispatcher), cfg, contacts, logs, dispatcher
}

func inbound(text, selection string) Inbound {
	return Inbound{
		EventType:   "messages.upsert",
		Instance:    "default",
		RemoteJID:   "5511999999999@s.whatsapp.net",
		SenderName:  "Maria",
		Text:        text,
		SelectionID: selection,
	}
}

// --- scenarios ---

func TestHappyPathNumericNavigation(t *testing.T) {
	e, _, contacts, _, dispatcher := newTestEngine()

	outcome, err := e.HandleMessage(context.Background(), inbound("1", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeReplied {
		t.Fatalf("outcome = %s, want replied", outcome)
	}

	c := contacts.contact
	if c.CurrentMenuKey != "plans" {
		t.Errorf("current menu = %q, want plans", c.CurrentMenuKey)
	}
	if c.NavigationStack != `["main"]` {
		t.Errorf("stack = %s, want [\"main\"]", c.NavigationStack)
	}
	if c.LastSentMenuKey != "plans" {
		t.Errorf("last sent = %q, want plans", c.LastSentMenuKey)
	}
	if c.InteractionCount != 1 {
		t.Errorf("interaction count = %d, want 1", c.InteractionCount)
	}

	if len(dispatcher.sent) != 1 {
		t.Fatalf("sends = %d, want 1", len(dispatcher.sent))
	}
	resp := dispatcher.sent[0]
	if resp.Text != "Nossos planos a partir de R$ 25:" {
		t.Errorf("variable substitution failed: %q", resp.Text)
	}
	var haveBack, haveHome bool
	for _, row := range resp.Rows {
		if row.ID == RowIDBack {
			haveBack = true
		}
		if row.ID == RowIDHome {
			haveHome = true
		}
	}
	if !haveBack || !haveHome {
		t.Errorf("synthesized rows missing (back=%v home=%v): %v", haveBack, haveHome, resp.Rows)
	}
}

func TestBackCommand(t *testing.T) {
	e, _, contacts, _, _ := newTestEngine()
	contacts.contact = &models.Contact{
		InstanceID: 1, Phone: "5511999999999",
		CurrentMenuKey: "plans", NavigationStack: `["main"]`,
	}

	outcome, err := e.HandleMessage(context.Background(), inbound("0", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeReplied {
		t.Fatalf("outcome = %s", outcome)
	}
	if contacts.contact.CurrentMenuKey != "main" {
		t.Errorf("current menu = %q, want main", contacts.contact.CurrentMenuKey)
	}
	if contacts.contact.NavigationStack != "[]" {
		t.Errorf("stack = %s, want []", contacts.contact.NavigationStack)
	}
}

func TestGlobalReset(t *testing.T) {
	e, cfg, contacts, _, _ := newTestEngine()
	cfg.menus["premium"] = &models.Menu{ID: 3, MenuKey: "premium", MessageText: "premium"}
	contacts.contact = &models.Contact{
		InstanceID: 1, Phone: "5511999999999",
		CurrentMenuKey: "premium", NavigationStack: `["main","plans"]`,
	}

	if _, err := e.HandleMessage(context.Background(), inbound("00", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contacts.contact.CurrentMenuKey != "main" {
		t.Errorf("current menu = %q, want main", contacts.contact.CurrentMenuKey)
	}
	if contacts.contact.NavigationStack != "[]" {
		t.Errorf("stack = %s, want []", contacts.contact.NavigationStack)
	}
}

func TestNoMatchFallback(t *testing.T) {
	e, _, contacts, logs, dispatcher := newTestEngine()
	contacts.contact = &models.Contact{
		InstanceID: 1, Phone: "5511999999999",
		CurrentMenuKey: "plans", NavigationStack: `["main"]`, LastSentMenuKey: "plans",
	}

	outcome, err := e.HandleMessage(context.Background(), inbound("xyzzy", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeReplied {
		t.Fatalf("outcome = %s", outcome)
	}
	if len(dispatcher.sent) != 1 || dispatcher.sent[0].Text != "Não entendi." {
		t.Fatalf("fallback not sent: %v", dispatcher.sent)
	}
	// navigation untouched
	if contacts.contact.CurrentMenuKey != "plans" || contacts.contact.NavigationStack != `["main"]` {
		t.Errorf("fallback changed navigation: %q %s", contacts.contact.CurrentMenuKey, contacts.contact.NavigationStack)
	}
	if len(logs.entries) != 1 || !logs.entries[0].Fallback {
		t.Errorf("fallback not logged: %+v", logs.entries)
	}
}

func TestAntiRepeatSuppressesSecondSend(t *testing.T) {
	e, cfg, contacts, _, dispatcher := newTestEngine()
	cfg.triggers = []models.GlobalTrigger{
		{ID: 1, TriggerName: "planos", Keywords: "plano", ActionType: "goto_menu", TargetMenuKey: "plans", Enabled: true},
	}

	if _, err := e.HandleMessage(context.Background(), inbound("plano", "")); err != nil {
		t.Fatalf("first message: %v", err)
	}
	outcome, err := e.HandleMessage(context.Background(), inbound("plano", ""))
	if err != nil {
		t.Fatalf("second message: %v", err)
	}

	if outcome != OutcomeSkipped {
		t.Fatalf("outcome = %s, want skipped", outcome)
	}
	if len(dispatcher.sent) != 1 {
		t.Errorf("sends = %d, want exactly 1", len(dispatcher.sent))
	}
	// state still advances on the suppressed send
	if contacts.contact.CurrentMenuKey != "plans" {
		t.Errorf("current menu = %q", contacts.contact.CurrentMenuKey)
	}
	if contacts.saves != 2 {
		t.Errorf("saves = %d, want 2", contacts.saves)
	}
}

func TestHumanHandoffFreeze(t *testing.T) {
	e, _, contacts, _, dispatcher := newTestEngine()

	// option 2 hands off
	outcome, err := e.HandleMessage(context.Background(), inbound("2", ""))
	if err != nil {
		t.Fatalf("handoff message: %v", err)
	}
	if outcome != OutcomeHandoff {
		t.Fatalf("outcome = %s, want handoff", outcome)
	}
	if !contacts.contact.AwaitingHuman {
		t.Fatal("awaiting_human not set")
	}

	sendsBefore := len(dispatcher.sent)
	savesBefore := contacts.saves

	// arbitrary input while frozen: dropped, no sends, no mutations
	outcome, err = e.HandleMessage(context.Background(), inbound("oi, tem alguém aí?", ""))
	if err != nil {
		t.Fatalf("frozen message: %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Fatalf("outcome = %s, want ignored", outcome)
	}
	if len(dispatcher.sent) != sendsBefore {
		t.Errorf("frozen input produced a send")
	}
	if contacts.saves != savesBefore {
		t.Errorf("frozen input mutated the contact")
	}

	// the reserved home word thaws the conversation
	outcome, err = e.HandleMessage(context.Background(), inbound("menu", ""))
	if err != nil {
		t.Fatalf("thaw message: %v", err)
	}
	if outcome != OutcomeReplied {
		t.Fatalf("outcome = %s, want replied", outcome)
	}
	if contacts.contact.AwaitingHuman {
		t.Error("awaiting_human still set after home command")
	}
	if contacts.contact.CurrentMenuKey != "main" {
		t.Errorf("current menu = %q, want main", contacts.contact.CurrentMenuKey)
	}
}

func TestTriggerBeatsMenuOption(t *testing.T) {
	e, cfg, contacts, logs, _ := newTestEngine()
	cfg.triggers = []models.GlobalTrigger{
		{ID: 1, TriggerName: "atendimento", Keywords: "atendente", Priority: 1, ActionType: "human", Enabled: true},
	}
	_ = contacts

	outcome, err := e.HandleMessage(context.Background(), inbound("quero falar com atendente", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeHandoff {
		t.Fatalf("outcome = %s", outcome)
	}
	if len(logs.entries) != 1 || logs.entries[0].MatchedTrigger != "atendimento" {
		t.Errorf("trigger should win over the menu option: %+v", logs.entries)
	}
}

func TestEndActionRestartsConversation(t *testing.T) {
	e, cfg, contacts, _, _ := newTestEngine()
	cfg.triggers = []models.GlobalTrigger{
		{ID: 1, TriggerName: "tchau", Keywords: "tchau", ActionType: "end", Enabled: true},
	}
	contacts.contact = &models.Contact{
		InstanceID: 1, Phone: "5511999999999",
		CurrentMenuKey: "plans", NavigationStack: `["main"]`, LastSentMenuKey: "plans",
	}

	if _, err := e.HandleMessage(context.Background(), inbound("tchau", "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := contacts.contact
	if c.CurrentMenuKey != "main" || c.NavigationStack != "[]" {
		t.Errorf("end should reset navigation: %q %s", c.CurrentMenuKey, c.NavigationStack)
	}
	if c.LastSentMenuKey != "" {
		t.Errorf("end should clear last sent menu, got %q", c.LastSentMenuKey)
	}
}

func TestStaleSelectionFallsBackToGlobalSearch(t *testing.T) {
	e, cfg, contacts, _, dispatcher := newTestEngine()
	cfg.globals["opt_monthly"] = &models.MenuOption{
		ID: 20, MenuID: 2, OptionNumber: 1, ListID: "opt_monthly",
		ActionType: "message", ResponseText: "O plano mensal custa {preco}.",
	}
	// contact sits at main, but taps a row from the plans list
	if _, err := e.HandleMessage(context.Background(), inbound("", "opt_monthly")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dispatcher.sent) != 1 || dispatcher.sent[0].Text != "O plano mensal custa R$ 25." {
		t.Fatalf("global selection lookup failed: %v", dispatcher.sent)
	}
	if contacts.contact.CurrentMenuKey != "main" {
		t.Errorf("message action should not navigate, at %q", contacts.contact.CurrentMenuKey)
	}
}

func TestIgnoredEvents(t *testing.T) {
	e, cfg, _, _, dispatcher := newTestEngine()

	self := inbound("oi", "")
	self.FromSelf = true
	if outcome, _ := e.HandleMessage(context.Background(), self); outcome != OutcomeIgnored {
		t.Errorf("self message outcome = %s", outcome)
	}

	status := inbound("oi", "")
	status.EventType = "messages.update"
	if outcome, _ := e.HandleMessage(context.Background(), status); outcome != OutcomeIgnored {
		t.Errorf("non-message event outcome = %s", outcome)
	}

	group := inbound("oi", "")
	group.RemoteJID = "12036302c@g.us"
	if outcome, _ := e.HandleMessage(context.Background(), group); outcome != OutcomeIgnored {
		t.Errorf("group message outcome = %s", outcome)
	}

	cfg.instance.BotEnabled = false
	if outcome, _ := e.HandleMessage(context.Background(), inbound("oi", "")); outcome != OutcomeIgnored {
		t.Errorf("disabled bot outcome = %s", outcome)
	}

	if len(dispatcher.sent) != 0 {
		t.Errorf("ignored events produced sends: %v", dispatcher.sent)
	}
}

func TestUnknownInstanceIsError(t *testing.T) {
	e, _, _, _, _ := newTestEngine()
	in := inbound("oi", "")
	in.Instance = "nope"
	outcome, err := e.HandleMessage(context.Background(), in)
	if outcome != OutcomeIgnored || err == nil {
		t.Errorf("outcome = %s, err = %v; want ignored with error", outcome, err)
	}
}

func TestMissingRootMenuIsError(t *testing.T) {
	e, cfg, _, _, _ := newTestEngine()
	delete(cfg.menus, "main")
	outcome, err := e.HandleMessage(context.Background(), inbound("xyzzy", ""))
	if outcome != OutcomeFailed || err == nil {
		t.Errorf("outcome = %s, err = %v; want failed with error", outcome, err)
	}
}

func TestDispatchFailureLeavesLastSentUnset(t *testing.T) {
	e, _, contacts, _, dispatcher := newTestEngine()
	dispatcher.err = errors.New("gateway down")

	outcome, err := e.HandleMessage(context.Background(), inbound("1", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", outcome)
	}
	// navigation advanced but the menu is re-sendable on the next message
	if contacts.contact.CurrentMenuKey != "plans" {
		t.Errorf("current menu = %q", contacts.contact.CurrentMenuKey)
	}
	if contacts.contact.LastSentMenuKey != "" {
		t.Errorf("last sent should stay unset on failure, got %q", contacts.contact.LastSentMenuKey)
	}
}
