package domain

// IdeaStatus is the lifecycle state of an idea.
type IdeaStatus string

const (
	StatusDraft      IdeaStatus = "DRAFT"
	StatusGated      IdeaStatus = "GATED"
	StatusApproved   IdeaStatus = "APPROVED"
	StatusProduction IdeaStatus = "PRODUCTION"
	StatusScheduled  IdeaStatus = "SCHEDULED"
	StatusPublished  IdeaStatus = "PUBLISHED"
	StatusAnalyzed   IdeaStatus = "ANALYZED"
	StatusArchived   IdeaStatus = "ARCHIVED"
)

// Statuses lists every status value, including the reserved ones
// (DRAFT, PUBLISHED, ANALYZED) that no transition produces.
var Statuses = []IdeaStatus{
	StatusDraft,
	StatusGated,
	StatusApproved,
	StatusProduction,
	StatusScheduled,
	StatusPublished,
	StatusAnalyzed,
	StatusArchived,
}

func (s IdeaStatus) Valid() bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Decision is the binary outcome of the decision gate.
type Decision string

const (
	DecisionStart Decision = "START"
	DecisionStop  Decision = "STOP"
)

type Goal struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	TargetMetric string `json:"targetMetric"`
	Deadline     string `json:"deadline"`
	CreatedAt    string `json:"createdAt" format:"date-time"`
}

type CDFScore struct {
	Alignment   float64  `json:"alignment"`
	Feasibility float64  `json:"feasibility"`
	Impact      float64  `json:"impact"`
	Novelty     float64  `json:"novelty"`
	TotalScore  float64  `json:"totalScore"`
	Decision    Decision `json:"decision" enum:"START,STOP"`
	Rationale   string   `json:"rationale"`
}

type Variant struct {
	Title           string   `json:"title"`
	Hook            string   `json:"hook"`
	Format          string   `json:"format"`
	Length          string   `json:"length"`
	SuggestedCTA    string   `json:"suggested_cta"`
	Tags            []string `json:"tags"`
	ConfidenceScore float64  `json:"confidence_score"`
}

type ProductionBrief struct {
	Storyboard []string `json:"storyboard"`
	AssetsList []string `json:"assetsList"`
	ShotList   []string `json:"shotList"`
	EditNotes  string   `json:"editNotes"`
}

type Idea struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	Status    IdeaStatus       `json:"status" enum:"DRAFT,GATED,APPROVED,PRODUCTION,SCHEDULED,PUBLISHED,ANALYZED,ARCHIVED"`
	GoalID    *string          `json:"goalId,omitempty"`
	CDFScore  *CDFScore        `json:"cdfScore,omitempty"`
	Variants  []Variant        `json:"variants"`
	Brief     *ProductionBrief `json:"brief,omitempty"`
	CreatedAt string           `json:"createdAt" format:"date-time"`
}

// HasVariants reports whether the ideation step already ran. An empty but
// non-nil list counts as generated.
func (i Idea) HasVariants() bool {
	return i.Variants != nil
}

// IdeaUpdate is a partial update; nil fields are left untouched.
type IdeaUpdate struct {
	Status   *IdeaStatus      `json:"status,omitempty"`
	CDFScore *CDFScore        `json:"cdfScore,omitempty"`
	Variants []Variant        `json:"variants,omitempty"`
	Brief    *ProductionBrief `json:"brief,omitempty"`
}

// Event types emitted by the workspace.
const (
	EventGoalCreated = "GOAL_CREATED"
	EventIdeaCreated = "IDEA_CREATED"
	EventIdeaUpdated = "IDEA_UPDATED"
)

// Entity kinds recorded alongside events.
const (
	EntityGoal = "goal"
	EntityIdea = "idea"
)

type AnalyticsEvent struct {
	ID         string `json:"id"`
	EventID    string `json:"eventId"`
	Timestamp  string `json:"timestamp" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entityKind,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
	Payload    any    `json:"payload"`
}

// Clone returns a copy sharing no pointers or slices with i.
func (i Idea) Clone() Idea {
	out := i
	if i.GoalID != nil {
		id := *i.GoalID
		out.GoalID = &id
	}
	if i.CDFScore != nil {
		s := *i.CDFScore
		out.CDFScore = &s
	}
	if i.Variants != nil {
		out.Variants = make([]Variant, len(i.Variants))
		for n, v := range i.Variants {
			v.Tags = cloneStrings(v.Tags)
			out.Variants[n] = v
		}
	}
	if i.Brief != nil {
		b := ProductionBrief{
			Storyboard: cloneStrings(i.Brief.Storyboard),
			AssetsList: cloneStrings(i.Brief.AssetsList),
			ShotList:   cloneStrings(i.Brief.ShotList),
			EditNotes:  i.Brief.EditNotes,
		}
		out.Brief = &b
	}
	return out
}

// cloneStrings copies s, keeping nil and empty distinct.
func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
