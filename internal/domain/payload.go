package domain

// EventPayload is a tagged event payload. The known event families get a
// typed variant each; arbitrary caller-supplied tags go through GenericPayload.
type EventPayload interface {
	// Tag returns the event type string persisted on the event.
	Tag() string
	// Fields returns the payload map persisted on the event.
	Fields() map[string]any
}

// StockMovementPayload records an inventory movement.
type StockMovementPayload struct {
	Produto    string
	Quantidade int
	Tipo       string // entrada, saida, ajuste
}

func (p StockMovementPayload) Tag() string { return "ESTOQUE_MOVIMENTO" }

func (p StockMovementPayload) Fields() map[string]any {
	return map[string]any{
		"produto":    p.Produto,
		"quantidade": p.Quantidade,
		"tipo":       p.Tipo,
	}
}

// UserActionPayload records a generic mutation of a resource by the user.
type UserActionPayload struct {
	Action        string
	ChangedFields []string
}

func (p UserActionPayload) Tag() string { return "USER_ACTION" }

func (p UserActionPayload) Fields() map[string]any {
	return map[string]any{
		"action":         p.Action,
		"changed_fields": p.ChangedFields,
	}
}

// GenericPayload carries an arbitrary caller-supplied tag and free-form data.
type GenericPayload struct {
	EventTag string
	Data     map[string]any
}

func (p GenericPayload) Tag() string { return p.EventTag }

func (p GenericPayload) Fields() map[string]any {
	if p.Data == nil {
		return map[string]any{}
	}
	return p.Data
}

type criticalPayload struct {
	inner EventPayload
}

func (p criticalPayload) Tag() string { return p.inner.Tag() }

func (p criticalPayload) Fields() map[string]any {
	fields := map[string]any{"priority": PriorityCritical}
	for k, v := range p.inner.Fields() {
		if k == "priority" {
			continue
		}
		fields[k] = v
	}
	return fields
}

// Critical wraps a payload so its persisted fields always carry the
// priority=CRITICAL marker.
func Critical(p EventPayload) EventPayload {
	return criticalPayload{inner: p}
}
