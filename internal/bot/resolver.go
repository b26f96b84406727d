package bot

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"chatbot-gateway/internal/classify"
	"chatbot-gateway/internal/models"
)

// The resolver picks at most one winner for a classified input. It must be
// deterministic: identical (input, configuration) pairs always produce the
// identical winner.

// SplitKeywords parses a comma-separated keyword column into normalized,
// non-empty tokens.
func SplitKeywords(raw string) []string {
	var out []string
	for _, k := range strings.Split(raw, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// TriggerSelectionID derives the selection identifier a trigger answers to
// when rendered as an interactive row.
func TriggerSelectionID(t *models.GlobalTrigger) string {
	name := strings.ToLower(strings.TrimSpace(t.TriggerName))
	return "trg_" + strings.ReplaceAll(name, " ", "_")
}

// OptionRowID returns the interactive row id for an option: the configured
// list id, or a stable derived one when the operator left it blank.
func OptionRowID(o *models.MenuOption) string {
	if id := strings.TrimSpace(o.ListID); id != "" {
		return id
	}
	return fmt.Sprintf("opt_%d", o.ID)
}

func normalizeID(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// DedupeTriggers collapses triggers sharing a normalized name, a data-entry
// error upstream. The one with the lowest sort order survives; collisions are
// logged, never fatal.
func DedupeTriggers(triggers []models.GlobalTrigger) []models.GlobalTrigger {
	byName := make(map[string]int)
	var out []models.GlobalTrigger

	for _, t := range triggers {
		key := normalizeID(t.TriggerName)
		idx, seen := byName[key]
		if !seen {
			byName[key] = len(out)
			out = append(out, t)
			continue
		}
		log.Printf("Duplicate trigger name %q (ids %d and %d), keeping lowest sort order", t.TriggerName, out[idx].ID, t.ID)
		if t.SortOrder < out[idx].SortOrder || (t.SortOrder == out[idx].SortOrder && t.ID < out[idx].ID) {
			out[idx] = t
		}
	}
	return out
}

// DedupeOptions collapses options sharing a normalized list id or an option
// number within one menu, keeping the lowest sort order.
func DedupeOptions(options []models.MenuOption) []models.MenuOption {
	byListID := make(map[string]int)
	byNumber := make(map[int]int)
	var out []models.MenuOption

	replaceIfLower := func(idx int, o models.MenuOption) {
		if o.SortOrder < out[idx].SortOrder || (o.SortOrder == out[idx].SortOrder && o.ID < out[idx].ID) {
			out[idx] = o
		}
	}

	for _, o := range options {
		listKey := normalizeID(o.ListID)
		if listKey != "" {
			if idx, seen := byListID[listKey]; seen {
				log.Printf("Duplicate option list_id %q (ids %d and %d), keeping lowest sort order", o.ListID, out[idx].ID, o.ID)
				replaceIfLower(idx, o)
				continue
			}
		}
		if idx, seen := byNumber[o.OptionNumber]; seen {
			log.Printf("Duplicate option number %d (ids %d and %d), keeping lowest sort order", o.OptionNumber, out[idx].ID, o.ID)
			replaceIfLower(idx, o)
			continue
		}
		if listKey != "" {
			byListID[listKey] = len(out)
		}
		byNumber[o.OptionNumber] = len(out)
		out = append(out, o)
	}
	return out
}

// longestKeywordMatch returns the longest configured keyword contained in the
// normalized text, or "" when none matches. Longer keywords are preferred so
// a generic short keyword cannot shadow a specific one.
func longestKeywordMatch(keywords []string, normalized string) string {
	if normalized == "" {
		return ""
	}
	best := ""
	for _, k := range keywords {
		if strings.Contains(normalized, k) && len(k) > len(best) {
			best = k
		}
	}
	return best
}

type triggerCandidate struct {
	trigger   models.GlobalTrigger
	selection bool
	keyword   string
}

// ResolveTrigger picks the single winning global trigger for the input, or
// nil. Tie-breaks, descending: selection match, configured priority, matching
// keyword length, trigger name.
func ResolveTrigger(triggers []models.GlobalTrigger, in classify.Input, vars map[string]string) *models.GlobalTrigger {
	var candidates []triggerCandidate

	for _, t := range DedupeTriggers(triggers) {
		if !t.Enabled {
			continue
		}
		cond := Condition{Kind: ParseConditionKind(t.ConditionType), Value: t.ConditionValue}
		if !cond.Evaluate(in, vars) {
			continue
		}

		if in.Kind == classify.KindSelection {
			if strings.EqualFold(in.SelectionID, TriggerSelectionID(&t)) {
				candidates = append(candidates, triggerCandidate{trigger: t, selection: true})
			}
			continue
		}

		if kw := longestKeywordMatch(SplitKeywords(t.Keywords), in.Normalized); kw != "" {
			candidates = append(candidates, triggerCandidate{trigger: t, keyword: kw})
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.selection != b.selection {
			return a.selection
		}
		if a.trigger.Priority != b.trigger.Priority {
			return a.trigger.Priority > b.trigger.Priority
		}
		if len(a.keyword) != len(b.keyword) {
			return len(a.keyword) > len(b.keyword)
		}
		return normalizeID(a.trigger.TriggerName) < normalizeID(b.trigger.TriggerName)
	})

	winner := candidates[0].trigger
	return &winner
}

type optionCandidate struct {
	option    models.MenuOption
	selection bool
	keyword   string
}

// ResolveOption picks the single winning option of the current menu, or nil.
// Numeric input matches by exact option number; everything else goes through
// the selection-id/keyword filter with the same tie-break ladder as triggers
// (lower sort order plays the role of higher priority).
func ResolveOption(options []models.MenuOption, in classify.Input) *models.MenuOption {
	deduped := DedupeOptions(options)

	if in.Kind == classify.KindNumber {
		for _, o := range deduped {
			if o.OptionNumber == in.Number {
				winner := o
				return &winner
			}
		}
		return nil
	}

	var candidates []optionCandidate
	for _, o := range deduped {
		if in.Kind == classify.KindSelection {
			if strings.EqualFold(in.SelectionID, OptionRowID(&o)) {
				candidates = append(candidates, optionCandidate{option: o, selection: true})
			}
			continue
		}
		if kw := longestKeywordMatch(SplitKeywords(o.Keywords), in.Normalized); kw != "" {
			candidates = append(candidates, optionCandidate{option: o, keyword: kw})
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.selection != b.selection {
			return a.selection
		}
		if a.option.SortOrder != b.option.SortOrder {
			return a.option.SortOrder < b.option.SortOrder
		}
		if len(a.keyword) != len(b.keyword) {
			return len(a.keyword) > len(b.keyword)
		}
		return normalizeID(OptionRowID(&a.option)) < normalizeID(OptionRowID(&b.option))
	})

	winner := candidates[0].option
	return &winner
}
