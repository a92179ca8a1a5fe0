package client

import "time"

// Session is the response of GET /me.
type Session struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

type Market struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Level     string    `json:"type"`
	ParentID  string    `json:"parent_id,omitempty"`
	Code      string    `json:"code,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	LineOfBusiness string     `json:"line_of_business"`
	SubTeam        string     `json:"sub_team"`
	Status         string     `json:"status"`
	LaunchDate     *time.Time `json:"launch_date,omitempty"`
	Notes          string     `json:"notes"`
}

// Flags are the blocker and escalation markers on a heatmap cell.
type Flags struct {
	Blocked          bool   `json:"blocked"`
	BlockerCount     int    `json:"blocker_count"`
	Escalated        bool   `json:"escalated"`
	EscalationStatus string `json:"escalation_status,omitempty"`
}

// HeatmapCell value is nil when the market has no data.
type HeatmapCell struct {
	MarketID string   `json:"market_id"`
	Value    *float64 `json:"value"`
	Color    string   `json:"color,omitempty"`
	Source   string   `json:"source,omitempty"`
	Flags    Flags    `json:"flags"`
}

type HeatmapColumn struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Level       string `json:"type"`
	Code        string `json:"code,omitempty"`
	HasChildren bool   `json:"has_children"`
	CityCount   int    `json:"city_count"`
}

type HeatmapRow struct {
	ProductID      string        `json:"product_id"`
	ProductName    string        `json:"product_name"`
	Status         string        `json:"status,omitempty"`
	Cells          []HeatmapCell `json:"cells"`
	Total          *float64      `json:"total"`
	TotalColor     string        `json:"total_color,omitempty"`
	BlockerSummary string        `json:"blocker_summary,omitempty"`
}

type Heatmap struct {
	Level         string          `json:"level"`
	ParentID      string          `json:"parent,omitempty"`
	Breadcrumb    string          `json:"breadcrumb,omitempty"`
	Metric        string          `json:"metric"`
	Columns       []HeatmapColumn `json:"columns"`
	Rows          []HeatmapRow    `json:"rows"`
	GeneratedAt   time.Time       `json:"generated_at"`
	StateLoadedAt time.Time       `json:"state_loaded_at"`
}

// HeatmapQuery selects one drill-down position. Empty fields use the
// server defaults.
type HeatmapQuery struct {
	Level      string
	ParentID   string
	ProductIDs []string
	Metric     string
}

type RadarFilter struct {
	Regions      []string `json:"regions,omitempty"`
	Countries    []string `json:"countries,omitempty"`
	PersonalView bool     `json:"personal_view"`
	ProductID    string   `json:"product,omitempty"`
	MarketID     string   `json:"market,omitempty"`
	FocusComment string   `json:"focus_comment,omitempty"`
}

type RollupRow struct {
	Product      *Product   `json:"product"`
	Blockers     []*Blocker `json:"blockers"`
	Coverage     float64    `json:"coverage"`
	BlockedCount int        `json:"blocked_count"`
	TotalCount   int        `json:"total_count"`
}

// RadarView is the personal radar.
type RadarView struct {
	Filter   RadarFilter `json:"filter"`
	Markets  []*Market   `json:"markets"`
	Rows     []RollupRow `json:"rows"`
	Warnings []string    `json:"warnings,omitempty"`
}

type Blocker struct {
	ID        string     `json:"id"`
	ProductID string     `json:"product_id"`
	MarketID  string     `json:"market_id"`
	Category  string     `json:"category"`
	Owner     string     `json:"owner"`
	ETA       *time.Time `json:"eta,omitempty"`
	Note      string     `json:"note"`
	JiraURL   string     `json:"jira_url,omitempty"`
	Escalated bool       `json:"escalated"`
	Resolved  bool       `json:"resolved"`
	Stale     bool       `json:"stale"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type CreateBlockerRequest struct {
	ProductID string     `json:"product_id"`
	MarketID  string     `json:"market_id"`
	Category  string     `json:"category"`
	Owner     string     `json:"owner"`
	ETA       *time.Time `json:"eta,omitempty"`
	Note      string     `json:"note"`
	JiraURL   string     `json:"jira_url,omitempty"`
}

// BlockerPatch is applied to every blocker in IDs. Nil fields are left alone.
type BlockerPatch struct {
	IDs       []string   `json:"ids"`
	Owner     *string    `json:"owner,omitempty"`
	Category  *string    `json:"category,omitempty"`
	Note      *string    `json:"note,omitempty"`
	JiraURL   *string    `json:"jira_url,omitempty"`
	ETA       *time.Time `json:"eta,omitempty"`
	ClearETA  bool       `json:"clear_eta,omitempty"`
	Escalated *bool      `json:"escalated,omitempty"`
	Resolved  *bool      `json:"resolved,omitempty"`
}

type BlockerSummary struct {
	ProductID string   `json:"product_id"`
	Count     int      `json:"count"`
	Lines     []string `json:"lines"`
	Text      string   `json:"text"`
}

type Escalation struct {
	ID              string     `json:"esc_id"`
	ProductID       string     `json:"product_id"`
	ScopeLevel      string     `json:"scope_level"`
	CityID          string     `json:"city_id,omitempty"`
	CountryCode     string     `json:"country_code,omitempty"`
	Region          string     `json:"region,omitempty"`
	RaisedBy        string     `json:"raised_by"`
	POC             string     `json:"poc"`
	Reason          string     `json:"reason"`
	ReasonType      string     `json:"reason_type,omitempty"`
	BusinessCaseURL string     `json:"business_case_url,omitempty"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	AlignedAt       *time.Time `json:"aligned_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

type RaiseEscalationRequest struct {
	ProductID       string `json:"product_id"`
	ScopeLevel      string `json:"scope_level"`
	CityID          string `json:"city_id,omitempty"`
	CountryCode     string `json:"country_code,omitempty"`
	Region          string `json:"region,omitempty"`
	POC             string `json:"poc"`
	Reason          string `json:"reason"`
	ReasonType      string `json:"reason_type,omitempty"`
	BusinessCaseURL string `json:"business_case_url,omitempty"`
}

type HistoryEntry struct {
	ID           string    `json:"id"`
	EscalationID string    `json:"esc_id"`
	OldStatus    string    `json:"old_status,omitempty"`
	NewStatus    string    `json:"new_status"`
	Actor        string    `json:"actor"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// EscalationResult is returned by raise and status changes. HistoryRecorded
// is false when the server saved the change without its audit row.
type EscalationResult struct {
	Escalation      *Escalation   `json:"escalation"`
	History         *HistoryEntry `json:"history,omitempty"`
	HistoryRecorded bool          `json:"history_recorded"`
}
