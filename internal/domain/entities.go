// Package domain defines the core entities, ports, and error taxonomy.
package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrRateLimited     = errors.New("rate limited")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	ErrSchemaInvalid   = errors.New("schema invalid")
	ErrUnavailable     = errors.New("service unavailable")
	ErrInternal        = errors.New("internal error")
)

// SubmissionStatus enumerates the lifecycle of a quiz submission.
// A submission is created pending and transitions exactly once to a
// terminal state (completed or failed).
type SubmissionStatus string

const (
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionCompleted SubmissionStatus = "completed"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Terminal reports whether s is a terminal status.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionCompleted || s == SubmissionFailed
}

// Answers holds the validated quiz answer set. Array fields are always
// non-nil after validation; optional fields default to empty values.
type Answers struct {
	CurrentGrade             string   `bson:"currentGrade" json:"currentGrade"`
	Stream                   string   `bson:"stream" json:"stream"`
	EnjoyedSubjects          []string `bson:"enjoyedSubjects" json:"enjoyedSubjects"`
	StrongSubjects           []string `bson:"strongSubjects" json:"strongSubjects"`
	Hobbies                  []string `bson:"hobbies" json:"hobbies"`
	Motivators               []string `bson:"motivators" json:"motivators"`
	WorkStyle                string   `bson:"workStyle" json:"workStyle"`
	TeamPreference           string   `bson:"teamPreference" json:"teamPreference"`
	TechComfort              int      `bson:"techComfort" json:"techComfort"`
	CreativeInterest         int      `bson:"creativeInterest" json:"creativeInterest"`
	CareerGoals              string   `bson:"careerGoals" json:"careerGoals"`
	PreferredWorkEnvironment string   `bson:"preferredWorkEnvironment" json:"preferredWorkEnvironment"`
	LearningStyle            string   `bson:"learningStyle" json:"learningStyle"`
	ProblemSolvingApproach   string   `bson:"problemSolvingApproach" json:"problemSolvingApproach"`
	HigherStudiesPlan        string   `bson:"higherStudiesPlan" json:"higherStudiesPlan"`
	BudgetConstraint         string   `bson:"budgetConstraint" json:"budgetConstraint"`
	DreamCareer              string   `bson:"dreamCareer" json:"dreamCareer"`
	ParentExpectation        string   `bson:"parentExpectation" json:"parentExpectation"`
	AdditionalInfo           string   `bson:"additionalInfo" json:"additionalInfo"`
}

// Submission is one user's completed quiz answer set plus its derived
// recommendation and status.
type Submission struct {
	ID               string
	SessionID        string
	Answers          Answers
	TimeSpentSeconds int
	ClientIP         string
	UserAgent        string
	Status           SubmissionStatus
	Error            string
	// Recommendation is the raw stored payload in either historical
	// shape. Readers normalize it via NormalizeRecommendation.
	Recommendation map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account used for the dashboard and admin console.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	Banned       bool
	Provider     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Interaction is one logged API request, the aggregation source for the
// admin analytics endpoints.
type Interaction struct {
	Route      string
	Method     string
	Status     int
	DurationMS int64
	ClientIP   string
	UserID     string
	CreatedAt  time.Time
}

// AnalyzeTaskPayload is the queue message for a background analysis job.
type AnalyzeTaskPayload struct {
	QuizID    string `json:"quiz_id"`
	SessionID string `json:"session_id"`
	RequestID string `json:"request_id,omitempty"`
}

// Repositories (ports)

type SubmissionRepository interface {
	Create(ctx Context, s Submission) (string, error)
	Get(ctx Context, id string) (Submission, error)
	GetBySessionID(ctx Context, sessionID string) (Submission, error)
	// Complete transitions pending -> completed with the recommendation
	// payload. It returns ErrConflict when the submission is already
	// terminal, which makes worker retries idempotent.
	Complete(ctx Context, id string, rec map[string]any) error
	// Fail transitions pending -> failed with an error message, under the
	// same conditional-update semantics as Complete.
	Fail(ctx Context, id string, errMsg string) error
	StatusCounts(ctx Context) (map[SubmissionStatus]int64, error)
	SubmissionsPerDay(ctx Context, days int) ([]DayCount, error)
	TopCareerPaths(ctx Context, limit int) ([]LabelCount, error)
	AverageTimeSpent(ctx Context) (float64, error)
}

type UserRepository interface {
	Create(ctx Context, u User) (string, error)
	GetByEmail(ctx Context, email string) (User, error)
	Get(ctx Context, id string) (User, error)
	SetRole(ctx Context, id, role string) error
	SetBanned(ctx Context, id string, banned bool) error
}

type InteractionRepository interface {
	Insert(ctx Context, in Interaction) error
	HourlyStats(ctx Context, since time.Time) ([]BucketStats, error)
	TopRoutes(ctx Context, since time.Time, limit int) ([]LabelCount, error)
	// Durations returns raw request durations for percentile computation.
	// The 95th percentile is computed by sorting in memory rather than via
	// a database-native percentile operator.
	Durations(ctx Context, since time.Time) ([]int64, error)
}

// Aggregation DTOs.

type DayCount struct {
	Day   string `bson:"_id" json:"day"`
	Count int64  `bson:"count" json:"count"`
}

type LabelCount struct {
	Label string `bson:"_id" json:"label"`
	Count int64  `bson:"count" json:"count"`
}

type BucketStats struct {
	Bucket   string `bson:"_id" json:"bucket"`
	Requests int64  `bson:"requests" json:"requests"`
	Errors   int64  `bson:"errors" json:"errors"`
}

// Queue (port)

type Queue interface {
	EnqueueAnalyze(ctx Context, payload AnalyzeTaskPayload) (string, error)
}

// AIClient (port)

type AIClient interface {
	// ChatJSON sends a prompt to the hosted LLM and returns the raw text
	// response, expected (but not guaranteed) to be a single JSON object.
	ChatJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// Context is an alias so the domain does not import adapters' contexts.
type Context = context.Context
