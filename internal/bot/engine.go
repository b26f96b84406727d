// Package bot implements the per-contact conversation engine: input
// classification, trigger/option resolution, navigation-stack maintenance
// and response construction. The transport and the database sit behind the
// small interfaces below so the whole state machine is testable with fakes.
package bot

import (
	"context"
	"fmt"
	"log"

	"chatbot-gateway/internal/classify"
	"chatbot-gateway/internal/models"
	"chatbot-gateway/internal/phone"
)

// Outcome is what happened to one inbound message.
type Outcome string

const (
	OutcomeReplied Outcome = "replied"
	OutcomeSkipped Outcome = "skipped" // anti-repeat suppressed the send
	OutcomeIgnored Outcome = "ignored"
	OutcomeHandoff Outcome = "handoff"
	OutcomeFailed  Outcome = "failed"
)

// Inbound is a transport-normalized webhook event.
type Inbound struct {
	EventType   string
	Instance    string
	RemoteJID   string
	FromSelf    bool
	SenderName  string
	Text        string
	SelectionID string
}

type ConfigStore interface {
	InstanceByName(ctx context.Context, name string) (*models.Instance, error)
	MenuByKey(ctx context.Context, instanceID uint, key string) (*models.Menu, error)
	Triggers(ctx context.Context, instanceID uint) ([]models.GlobalTrigger, error)
	// OptionBySelectionID is the cross-menu fallback search by list id.
	OptionBySelectionID(ctx context.Context, instanceID uint, selectionID string) (*models.MenuOption, error)
	Variables(ctx context.Context, instanceID uint) (map[string]string, error)
}

type ContactStore interface {
	GetOrCreate(ctx context.Context, instanceID uint, phoneNumber, name string) (*models.Contact, error)
	// Save must write all navigation fields and bump interaction_count in one
	// logical write; see the store package for the concurrency contract.
	Save(ctx context.Context, contact *models.Contact) error
}

type LogStore interface {
	Append(ctx context.Context, entry *models.MessageLog) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, instance *models.Instance, recipient string, resp *Response) error
}

// Event is pushed to the dashboard hub after each processed message.
type Event struct {
	Instance string  `json:"instance"`
	Phone    string  `json:"phone"`
	MenuKey  string  `json:"menu_key"`
	Outcome  Outcome `json:"outcome"`
	Inbound  string  `json:"inbound"`
}

type Notifier interface {
	Notify(event Event)
}

type Engine struct {
	Config     ConfigStore
	Contacts   ContactStore
	Logs       LogStore
	Dispatcher Dispatcher
	Notifier   Notifier // optional
}

func NewEngine(cfg ConfigStore, contacts ContactStore, logs LogStore, dispatcher Dispatcher) *Engine {
	return &Engine{Config: cfg, Contacts: contacts, Logs: logs, Dispatcher: dispatcher}
}

// Fixed allow-lists recognized even during human handoff. Deliberately
// independent of seller configuration.
var (
	handoffHomeWords = map[string]bool{"menu": true, "inicio": true, "início": true, "home": true, "00": true}
	handoffBackWords = map[string]bool{"voltar": true, "0": true}
)

const defaultFallback = "Desculpe, não entendi. Digite *00* para voltar ao menu principal."
const defaultHandoffAck = "Certo! Um atendente vai continuar a conversa com você. Digite *00* para voltar ao atendimento automático."
const defaultEndMessage = "Atendimento encerrado. Envie qualquer mensagem para recomeçar."

// HandleMessage runs the full per-message algorithm and returns the outcome
// reported to the webhook caller.
func (e *Engine) HandleMessage(ctx context.Context, in Inbound) (Outcome, error) {
	if in.FromSelf {
		return OutcomeIgnored, nil
	}
	if in.EventType != "" && in.EventType != "messages.upsert" {
		return OutcomeIgnored, nil
	}

	instance, err := e.Config.InstanceByName(ctx, in.Instance)
	if err != nil || instance == nil {
		return OutcomeIgnored, fmt.Errorf("instance %q not found", in.Instance)
	}
	if !instance.BotEnabled {
		return OutcomeIgnored, nil
	}
	if instance.IgnoreGroups && phone.IsGroup(in.RemoteJID) {
		return OutcomeIgnored, nil
	}

	canonical := phone.Canonical(in.RemoteJID)
	if canonical == "" {
		return OutcomeIgnored, nil
	}

	contact, err := e.Contacts.GetOrCreate(ctx, instance.ID, canonical, in.SenderName)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("loading contact %s: %w", canonical, err)
	}

	input := classify.Classify(in.Text, in.SelectionID)
	stack := ParseStack(contact.NavigationStack)

	// Handoff freeze: only the reserved home/back commands are recognized;
	// everything else is dropped with no send and no contact mutation.
	forcedHome, forcedBack := false, false
	if contact.AwaitingHuman {
		switch {
		case handoffHomeWords[input.Normalized]:
			forcedHome = true
		case handoffBackWords[input.Normalized]:
			forcedBack = true
		default:
			return OutcomeIgnored, nil
		}
		contact.AwaitingHuman = false
	}

	vars, err := e.Config.Variables(ctx, instance.ID)
	if err != nil {
		log.Printf("Error loading variables for instance %d: %v", instance.ID, err)
		vars = map[string]string{}
	}
	vars = withBuiltins(vars, contact, canonical)

	step, err := e.route(ctx, instance, contact, stack, input, vars, forcedHome, forcedBack)
	if err != nil {
		return OutcomeFailed, err
	}

	outcome := OutcomeReplied
	if step.awaitingHuman {
		outcome = OutcomeHandoff
	}

	// Anti-repeat: never re-transmit the menu the contact saw last. State
	// still advances; only the transport call is suppressed.
	suppressed := step.resp.MenuKey != "" && step.resp.MenuKey == contact.LastSentMenuKey
	if suppressed {
		outcome = OutcomeSkipped
	} else {
		if err := e.Dispatcher.Dispatch(ctx, instance, in.RemoteJID, step.resp); err != nil {
			log.Printf("Dispatch to %s failed after all variants: %v", canonical, err)
			outcome = OutcomeFailed
		} else if step.resp.MenuKey != "" {
			contact.LastSentMenuKey = step.resp.MenuKey
		}
	}

	if step.currentKey != contact.CurrentMenuKey {
		contact.PreviousMenuKey = contact.CurrentMenuKey
		contact.CurrentMenuKey = step.currentKey
	}
	contact.NavigationStack = step.stack.Encode()
	contact.AwaitingHuman = step.awaitingHuman
	if step.clearLastSent {
		contact.LastSentMenuKey = ""
	}

	if err := e.Contacts.Save(ctx, contact); err != nil {
		log.Printf("Error saving contact %s: %v", canonical, err)
	}

	e.appendLog(ctx, instance, canonical, in.Text, step, outcome)
	if e.Notifier != nil {
		e.Notifier.Notify(Event{
			Instance: instance.Name,
			Phone:    canonical,
			MenuKey:  contact.CurrentMenuKey,
			Outcome:  outcome,
			Inbound:  in.Text,
		})
	}

	return outcome, nil
}

// step is the routing result: what to say and where the contact ends up.
type step struct {
	resp          *Response
	currentKey    string
	stack         Stack
	awaitingHuman bool
	matched       string
	fallback      bool
	clearLastSent bool
}

func (e *Engine) route(ctx context.Context, instance *models.Instance, contact *models.Contact, stack Stack, input classify.Input, vars map[string]string, forcedHome, forcedBack bool) (*step, error) {
	current := contact.CurrentMenuKey
	if current == "" {
		current = HomeMenuKey
	}

	// Reserved navigation always wins over configured options: 0 / back row
	// pops one level, 00 / home row resets to the root.
	homeCmd := forcedHome || input.Raw == "00" || (input.Kind == classify.KindSelection && input.SelectionID == RowIDHome)
	backCmd := forcedBack || input.Raw == "0" || (input.Kind == classify.KindSelection && input.SelectionID == RowIDBack)

	switch {
	case homeCmd:
		return e.renderStep(ctx, instance, HomeMenuKey, stack.Reset(), vars, "", current, stack)
	case backCmd:
		newStack, target := stack.Pop()
		return e.renderStep(ctx, instance, target, newStack, vars, "", current, stack)
	}

	triggers, err := e.Config.Triggers(ctx, instance.ID)
	if err != nil {
		log.Printf("Error loading triggers for instance %d: %v", instance.ID, err)
	}
	if t := ResolveTrigger(triggers, input, vars); t != nil {
		ra := resolvedAction{action: ParseAction(t.ActionType), targetKey: t.TargetMenuKey, responseText: t.ResponseText}
		return e.applyAction(ctx, instance, ra, current, stack, vars, t.TriggerName)
	}

	option, err := e.resolveMenuOption(ctx, instance, current, input)
	if err != nil {
		return nil, err
	}
	if option != nil {
		ra := resolvedAction{action: ParseAction(option.ActionType), targetKey: option.TargetMenuKey, responseText: option.ResponseText}
		return e.applyAction(ctx, instance, ra, current, stack, vars, OptionRowID(option))
	}

	// No match: configured fallback, navigation untouched.
	return &step{
		resp:       &Response{Text: fallbackText(instance)},
		currentKey: current,
		stack:      stack,
		fallback:   true,
	}, nil
}

func (e *Engine) resolveMenuOption(ctx context.Context, instance *models.Instance, current string, input classify.Input) (*models.MenuOption, error) {
	menu, err := e.Config.MenuByKey(ctx, instance.ID, current)
	if err != nil || menu == nil {
		if current == HomeMenuKey {
			return nil, fmt.Errorf("instance %q has no root %q menu", instance.Name, HomeMenuKey)
		}
		log.Printf("Menu %q missing for instance %d, matching against root", current, instance.ID)
		menu, err = e.Config.MenuByKey(ctx, instance.ID, HomeMenuKey)
		if err != nil || menu == nil {
			return nil, fmt.Errorf("instance %q has no root %q menu", instance.Name, HomeMenuKey)
		}
	}

	if option := ResolveOption(menu.Options, input); option != nil {
		return option, nil
	}

	// List ids are unique per instance, so a selection that is not on the
	// current menu falls back to a global search (stale list on the phone).
	if input.Kind == classify.KindSelection {
		option, err := e.Config.OptionBySelectionID(ctx, instance.ID, input.SelectionID)
		if err == nil && option != nil {
			return option, nil
		}
	}
	return nil, nil
}

// resolvedAction carries the tagged-variant view of a matched record: only
// the fields relevant to its action are ever read.
type resolvedAction struct {
	action       Action
	targetKey    string
	responseText string
}

func (e *Engine) applyAction(ctx context.Context, instance *models.Instance, ra resolvedAction, current string, stack Stack, vars map[string]string, matched string) (*step, error) {
	switch ra.action {
	case ActionGotoHome:
		return e.renderStep(ctx, instance, HomeMenuKey, stack.Reset(), vars, matched, current, stack)

	case ActionGotoPrevious:
		newStack, target := stack.Pop()
		return e.renderStep(ctx, instance, target, newStack, vars, matched, current, stack)

	case ActionMenu:
		target := ra.targetKey
		var newStack Stack
		switch {
		case target == "" || target == HomeMenuKey:
			target = HomeMenuKey
			newStack = stack.Reset()
		case target == current:
			// re-entering the same menu; the stack must never contain the
			// current menu itself
			newStack = stack
		default:
			newStack = stack.Push(current)
		}
		return e.renderStep(ctx, instance, target, newStack, vars, matched, current, stack)

	case ActionMessage:
		return &step{
			resp:       &Response{Text: SubstituteVariables(ra.responseText, vars)},
			currentKey: current,
			stack:      stack,
			matched:    matched,
		}, nil

	case ActionHuman:
		text := ra.responseText
		if text == "" {
			text = defaultHandoffAck
		}
		return &step{
			resp:          &Response{Text: SubstituteVariables(text, vars)},
			currentKey:    current,
			stack:         stack,
			awaitingHuman: true,
			matched:       matched,
		}, nil

	case ActionEnd:
		text := ra.responseText
		if text == "" {
			text = defaultEndMessage
		}
		return &step{
			resp:          &Response{Text: SubstituteVariables(text, vars)},
			currentKey:    HomeMenuKey,
			stack:         stack.Reset(),
			matched:       matched,
			clearLastSent: true,
		}, nil

	default:
		log.Printf("Record %q has unknown action type, falling back", matched)
		return &step{
			resp:       &Response{Text: fallbackText(instance)},
			currentKey: current,
			stack:      stack,
			fallback:   true,
		}, nil
	}
}

// renderStep loads and renders the target menu. A missing non-root target is
// a configuration anomaly: the fallback is sent and navigation stays put.
func (e *Engine) renderStep(ctx context.Context, instance *models.Instance, target string, newStack Stack, vars map[string]string, matched, current string, oldStack Stack) (*step, error) {
	menu, err := e.Config.MenuByKey(ctx, instance.ID, target)
	if err != nil || menu == nil {
		if target == HomeMenuKey {
			return nil, fmt.Errorf("instance %q has no root %q menu", instance.Name, HomeMenuKey)
		}
		log.Printf("Target menu %q missing for instance %d, keeping navigation", target, instance.ID)
		return &step{
			resp:       &Response{Text: fallbackText(instance)},
			currentKey: current,
			stack:      oldStack,
			matched:    matched,
			fallback:   true,
		}, nil
	}

	resp := BuildMenuResponse(menu, vars, newStack)
	resp.ButtonLabel = instance.ListButtonLabel
	return &step{
		resp:       resp,
		currentKey: target,
		stack:      newStack,
		matched:    matched,
	}, nil
}

func fallbackText(instance *models.Instance) string {
	if instance.FallbackMessage != "" {
		return instance.FallbackMessage
	}
	return defaultFallback
}

func withBuiltins(vars map[string]string, contact *models.Contact, canonical string) map[string]string {
	merged := make(map[string]string, len(vars)+2)
	for k, v := range vars {
		merged[k] = v
	}
	name := contact.Name
	if name == "" {
		name = canonical
	}
	merged["nome"] = name
	merged["telefone"] = canonical
	return merged
}

func (e *Engine) appendLog(ctx context.Context, instance *models.Instance, canonical, inboundText string, st *step, outcome Outcome) {
	outbound := ""
	if st.resp != nil && outcome != OutcomeSkipped {
		outbound = truncateRunes(st.resp.PlainText(), 500)
	}
	entry := &models.MessageLog{
		InstanceID:     instance.ID,
		Phone:          canonical,
		InboundText:    truncateRunes(inboundText, 500),
		OutboundText:   outbound,
		MenuKey:        st.currentKey,
		MatchedTrigger: st.matched,
		Fallback:       st.fallback,
		Outcome:        string(outcome),
	}
	if err := e.Logs.Append(ctx, entry); err != nil {
		log.Printf("Error appending message log: %v", err)
	}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
