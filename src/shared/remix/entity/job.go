package remixentity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veedubyou/stem-remixer/src/shared/lib/jsonlib"
	"github.com/veedubyou/stem-remixer/src/shared/remix/request"
	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
)

type Status string

const (
	RequestedStatus  Status = "requested"
	ProcessingStatus Status = "processing"
	DoneStatus       Status = "done"
	ErrorStatus      Status = "error"
)

// Stage is the last pipeline step a job reached, kept for status polling.
type Stage string

const (
	QueuedStage     Stage = "queued"
	FetchingStage   Stage = "fetching"
	SeparatingStage Stage = "separating"
	ResolvingStage  Stage = "resolving"
	MixingStage     Stage = "mixing"
	EncodingStage   Stage = "encoding"
	UploadingStage  Stage = "uploading"
	FinishedStage   Stage = "finished"
)

const maxDebugLogLength = 2000

type JobFields struct {
	ID              string         `json:"id"`
	Command         request.Action `json:"command"`
	Stem            stem.Name      `json:"stem"`
	GainDB          float64        `json:"gain_db"`
	Title           string         `json:"title"`
	OriginalURL     string         `json:"original_url"`
	RequestedBy     string         `json:"requested_by"`
	Status          Status         `json:"status"`
	StatusMessage   string         `json:"status_message"`
	StatusDebugLog  string         `json:"status_debug_log"`
	Stage           Stage          `json:"progress_stage"`
	OutputURL       string         `json:"output_url"`
	OutputBitrate   string         `json:"output_bitrate"`
	OutputSizeBytes int64          `json:"output_size_bytes"`
	SizeWarning     bool           `json:"size_warning"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

type Job struct {
	jsonlib.Flatten[JobFields]
}

// NewJob turns an interpreted request into a fresh record awaiting a worker.
func NewJob(action request.Action, req request.Request, originalURL string) Job {
	job := Job{}
	job.Defined = JobFields{
		ID:            uuid.New().String(),
		Command:       action,
		Stem:          req.Stem,
		GainDB:        req.GainDB,
		Title:         req.Title,
		OriginalURL:   originalURL,
		Status:        RequestedStatus,
		StatusMessage: "The remix has been requested",
		Stage:         QueuedStage,
	}

	job.Touch()
	job.Defined.CreatedAt = job.Defined.UpdatedAt

	return job
}

func (j Job) GetID() string {
	return j.Defined.ID
}

func (j Job) Request() request.Request {
	return request.Request{
		Stem:   j.Defined.Stem,
		GainDB: j.Defined.GainDB,
		Title:  j.Defined.Title,
	}
}

func (j *Job) Touch() {
	j.Defined.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
}

func (j *Job) StartProcessing() {
	j.Defined.Status = ProcessingStatus
	j.Defined.StatusMessage = "The remix is being processed"
	j.Defined.StatusDebugLog = ""
}

func (j *Job) Progress(stage Stage) {
	j.Defined.Stage = stage
}

func (j *Job) Fail(userMessage string, debugLog string) {
	j.Defined.Status = ErrorStatus
	j.Defined.StatusMessage = userMessage
	j.Defined.StatusDebugLog = truncate(debugLog, maxDebugLogLength)
}

func (j *Job) Complete(outputURL string, bitrate string, sizeBytes int64, sizeWarning bool, message string) {
	j.Defined.Status = DoneStatus
	j.Defined.Stage = FinishedStage
	j.Defined.StatusMessage = message
	j.Defined.StatusDebugLog = ""
	j.Defined.OutputURL = outputURL
	j.Defined.OutputBitrate = bitrate
	j.Defined.OutputSizeBytes = sizeBytes
	j.Defined.SizeWarning = sizeWarning
}

// Requeue puts a job back to its freshly requested state so a worker
// will claim it again.
func (j *Job) Requeue() {
	j.Defined.Status = RequestedStatus
	j.Defined.StatusMessage = "The remix has been requested"
	j.Defined.StatusDebugLog = ""
	j.Defined.Stage = QueuedStage
	j.Defined.OutputURL = ""
	j.Defined.OutputBitrate = ""
	j.Defined.OutputSizeBytes = 0
	j.Defined.SizeWarning = false
}

// View is what status polling may see. Tool output and the requester's
// identity stay internal.
type View struct {
	ID              string         `json:"id"`
	Command         request.Action `json:"command"`
	Stem            stem.Name      `json:"stem"`
	GainDB          float64        `json:"gain_db"`
	Title           string         `json:"title"`
	OriginalURL     string         `json:"original_url"`
	Status          Status         `json:"status"`
	StatusMessage   string         `json:"status_message"`
	Stage           Stage          `json:"progress_stage"`
	OutputURL       string         `json:"output_url"`
	OutputBitrate   string         `json:"output_bitrate"`
	OutputSizeBytes int64          `json:"output_size_bytes"`
	SizeWarning     bool           `json:"size_warning"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
}

func (j Job) View() View {
	fields := j.Defined
	return View{
		ID:              fields.ID,
		Command:         fields.Command,
		Stem:            fields.Stem,
		GainDB:          fields.GainDB,
		Title:           fields.Title,
		OriginalURL:     fields.OriginalURL,
		Status:          fields.Status,
		StatusMessage:   fields.StatusMessage,
		Stage:           fields.Stage,
		OutputURL:       fields.OutputURL,
		OutputBitrate:   fields.OutputBitrate,
		OutputSizeBytes: fields.OutputSizeBytes,
		SizeWarning:     fields.SizeWarning,
		CreatedAt:       fields.CreatedAt,
		UpdatedAt:       fields.UpdatedAt,
	}
}

func (j Job) ToMap() (map[string]any, error) {
	return j.Flatten.ToMap()
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	// keep the tail, tools print the useful part last
	return "..." + strings.ToValidUTF8(s[len(s)-limit:], "")
}
