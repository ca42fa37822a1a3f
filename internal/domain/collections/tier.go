package collections

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"sort"

	"github.com/crediretail/backend/internal/domain/shared"
)

// ActionType identifies one automated step configured on a collection tier
type ActionType string

const (
	ActionGenerateAlert           ActionType = "GENERATE_ALERT"
	ActionSendNotification        ActionType = "SEND_NOTIFICATION"
	ActionEscalatePriority        ActionType = "ESCALATE_PRIORITY"
	ActionChangeInstallmentStatus ActionType = "CHANGE_INSTALLMENT_STATUS"
	ActionBlockClient             ActionType = "BLOCK_CLIENT"
	ActionRecordNote              ActionType = "RECORD_NOTE"
	ActionAssignManager           ActionType = "ASSIGN_MANAGER"
	ActionMarkPromiseBroken       ActionType = "MARK_PROMISE_BROKEN"
)

// IsValid checks if the action type is valid
func (t ActionType) IsValid() bool {
	switch t {
	case ActionGenerateAlert, ActionSendNotification, ActionEscalatePriority,
		ActionChangeInstallmentStatus, ActionBlockClient, ActionRecordNote,
		ActionAssignManager, ActionMarkPromiseBroken:
		return true
	}
	return false
}

// Channel is the notification delivery preference
type Channel string

const (
	ChannelWhatsApp Channel = "WHATSAPP"
	ChannelEmail    Channel = "EMAIL"
	ChannelBoth     Channel = "BOTH"
)

// IsValid checks if the channel is valid
func (c Channel) IsValid() bool {
	return c == ChannelWhatsApp || c == ChannelEmail || c == ChannelBoth
}

// BlockType is the scope of a client block
type BlockType string

const (
	BlockNewCreditOnly   BlockType = "NEW_CREDIT_ONLY"
	BlockAllOperations   BlockType = "ALL_OPERATIONS"
	BlockCreditSalesOnly BlockType = "CREDIT_SALES_ONLY"
)

// IsValid checks if the block type is valid
func (b BlockType) IsValid() bool {
	return b == BlockNewCreditOnly || b == BlockAllOperations || b == BlockCreditSalesOnly
}

// TierAction is one configured step of a tier, executed in declaration order.
// DayOffset delays the action until the alert has aged that many days into
// the tier's range (0 = the day the tier is entered).
type TierAction struct {
	Type      ActionType `json:"type"`
	DayOffset int        `json:"day_offset"`
	Channel   Channel    `json:"channel,omitempty"`
	Template  string     `json:"template,omitempty"`
	BlockType BlockType  `json:"block_type,omitempty"`
	ManagerID string     `json:"manager_id,omitempty"` // for ASSIGN_MANAGER
	Note      string     `json:"note,omitempty"`       // for RECORD_NOTE
}

// TierActions is stored as JSONB on the tier row
type TierActions []TierAction

// Value implements driver.Valuer for JSONB storage
func (a TierActions) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB storage
func (a *TierActions) Scan(value interface{}) error {
	if value == nil {
		*a = TierActions{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan TierActions: unsupported type")
	}
	if len(bytes) == 0 {
		*a = TierActions{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

// CollectionTier ("tramo") groups the automation for one band of overdue
// days. FromDay..ToDay is inclusive; a nil ToDay leaves the band unbounded.
type CollectionTier struct {
	shared.BaseAggregateRoot
	Name     string      `json:"name"`
	FromDay  int         `json:"from_day"`
	ToDay    *int        `json:"to_day"`
	Priority int         `json:"priority"`
	Enabled  bool        `json:"enabled"`
	Actions  TierActions `json:"actions"`
}

// NewCollectionTier creates an enabled tier covering [fromDay, toDay]
func NewCollectionTier(name string, fromDay int, toDay *int, priority int, actions TierActions) (*CollectionTier, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Tier name cannot be empty")
	}
	if fromDay < 0 {
		return nil, shared.NewDomainError("INVALID_RANGE", "Tier range cannot start below zero")
	}
	if toDay != nil && *toDay < fromDay {
		return nil, shared.NewDomainError("INVALID_RANGE", "Tier range end cannot precede its start")
	}
	for _, action := range actions {
		if !action.Type.IsValid() {
			return nil, shared.NewDomainError("INVALID_ACTION", "Tier contains an unknown action type")
		}
		if action.DayOffset < 0 {
			return nil, shared.NewDomainError("INVALID_ACTION", "Action day offset cannot be negative")
		}
	}
	return &CollectionTier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		FromDay:           fromDay,
		ToDay:             toDay,
		Priority:          priority,
		Enabled:           true,
		Actions:           actions,
	}, nil
}

// SetEnabled toggles the tier in or out of the automation run
func (t *CollectionTier) SetEnabled(enabled bool) {
	if t.Enabled == enabled {
		return
	}
	t.Enabled = enabled
	t.Touch(nil)
	t.IncrementVersion()
}

// Contains reports whether daysLate falls inside the tier's band
func (t *CollectionTier) Contains(daysLate int) bool {
	if daysLate < t.FromDay {
		return false
	}
	return t.ToDay == nil || daysLate <= *t.ToDay
}

// DaysIntoTier returns how many days the alert has aged past the tier start
func (t *CollectionTier) DaysIntoTier(daysLate int) int {
	return daysLate - t.FromDay
}

// SelectTier picks the tier that applies to an alert daysLate days overdue.
// Tiers are walked in priority order and the first match wins; configuration
// is expected to keep bands non-overlapping but this is not enforced here.
// Returns nil when no tier matches.
func SelectTier(tiers []CollectionTier, daysLate int) *CollectionTier {
	ordered := make([]CollectionTier, len(tiers))
	copy(ordered, tiers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	for i := range ordered {
		if ordered[i].Enabled && ordered[i].Contains(daysLate) {
			return &ordered[i]
		}
	}
	return nil
}
