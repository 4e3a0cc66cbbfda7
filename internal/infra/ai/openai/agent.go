package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/bryanwahyu/incident-responder/internal/application/pipeline"
	"github.com/bryanwahyu/incident-responder/internal/domain/ai"
	"github.com/bryanwahyu/incident-responder/internal/domain/analysis"
	"github.com/bryanwahyu/incident-responder/internal/domain/incidents"
	"github.com/bryanwahyu/incident-responder/internal/domain/knowledge"
	"github.com/bryanwahyu/incident-responder/internal/domain/logs"
	"github.com/bryanwahyu/incident-responder/internal/infra/ai/prompt"
)

// maxLogBytes caps how much raw log text goes back to the model.
const maxLogBytes = 20000

// completer is the slice of the OpenAI client the agent needs; tests swap in
// a scripted implementation.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Agent implements ai.Agent with an OpenAI tool-calling loop over the tool
// set {fetch_log, retrieve_kb, store_report}. Each tool invocation is
// pre-announced as an in_progress step and finalized afterwards, so the UI
// shows progress while the model works.
type Agent struct {
	Chat     completer
	Model    string
	Logs     logs.Source
	KB       knowledge.Retriever
	Ledger   incidents.Ledger
	Recorder *incidents.StepRecorder
	TopK     int
	MaxTurns int
	// PhaseTimeout bounds every model turn and every tool backend call so
	// a hung completion or backend cannot stall the poller tick. Zero
	// means no deadline.
	PhaseTimeout time.Duration
}

// NewAgent wires the agent against a real client.
func NewAgent(client *Client, src logs.Source, kb knowledge.Retriever, ledger incidents.Ledger, topK int, phaseTimeout time.Duration) *Agent {
	return &Agent{
		Chat:         client,
		Model:        client.Model,
		Logs:         src,
		KB:           kb,
		Ledger:       ledger,
		Recorder:     &incidents.StepRecorder{Ledger: ledger},
		TopK:         topK,
		PhaseTimeout: phaseTimeout,
	}
}

func (a *Agent) phaseContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.PhaseTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.PhaseTimeout)
}

var _ ai.Agent = (*Agent)(nil)

// session tracks tool-sequencing state for one investigation.
type session struct {
	logText   string
	fetched   bool
	retrieved bool
	stored    bool
}

func (a *Agent) Investigate(ctx context.Context, inc *incidents.Incident) error {
	maxTurns := a.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 8
	}

	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: prompt.SystemPrompt()},
		{Role: openai.ChatMessageRoleUser, Content: prompt.UserPrompt(inc)},
	}
	sess := &session{}

	for turn := 0; turn < maxTurns; turn++ {
		pctx, cancel := a.phaseContext(ctx)
		resp, err := a.Chat.CreateChatCompletion(pctx, openai.ChatCompletionRequest{
			Model:    a.Model,
			Messages: msgs,
			Tools:    toolDefinitions(),
		})
		cancel()
		if err != nil {
			return wrapUnavailable(err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}
		msg := resp.Choices[0].Message
		msgs = append(msgs, msg)

		if len(msg.ToolCalls) == 0 {
			if sess.stored {
				return nil
			}
			return fmt.Errorf("agent finished without storing a report")
		}

		for _, tc := range msg.ToolCalls {
			out, err := a.dispatch(ctx, inc, sess, tc)
			if err != nil {
				return err
			}
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    out,
				ToolCallID: tc.ID,
			})
		}
	}
	return fmt.Errorf("agent exceeded %d turns without finishing", maxTurns)
}

// dispatch runs one tool call. Sequencing violations are reported back to
// the model as tool output so it can correct itself; real backend failures
// propagate and fail the incident.
func (a *Agent) dispatch(ctx context.Context, inc *incidents.Incident, sess *session, tc openai.ToolCall) (string, error) {
	switch tc.Function.Name {
	case "fetch_log":
		return a.fetchLog(ctx, inc, sess, tc.Function.Arguments)
	case "retrieve_kb":
		if !sess.fetched {
			return "error: fetch_log must be called before retrieve_kb", nil
		}
		return a.retrieveKB(ctx, inc, sess, tc.Function.Arguments)
	case "store_report":
		if !sess.fetched {
			return "error: fetch_log must be called before store_report", nil
		}
		return a.storeReport(ctx, inc, sess, tc.Function.Arguments)
	default:
		return fmt.Sprintf("error: unknown tool %q", tc.Function.Name), nil
	}
}

type stepArgs struct {
	PhaseTitle string `json:"phase_title"`
	Synopsis   string `json:"synopsis"`
}

func (a *Agent) fetchLog(ctx context.Context, inc *incidents.Incident, sess *session, rawArgs string) (string, error) {
	var args stepArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("error: bad arguments: %v", err), nil
	}
	stepID, err := a.Recorder.Begin(ctx, inc.ID, "collector", args.PhaseTitle, args.Synopsis)
	if err != nil {
		return "", err
	}

	group := logs.RouteGroup(inc.AlertType())
	pctx, cancel := a.phaseContext(ctx)
	text, err := a.Logs.Fetch(pctx, string(inc.ID), group)
	cancel()
	if err != nil {
		// Attempted locations travel in the NotFoundError message itself.
		data := map[string]string{"incident_id": string(inc.ID), "group": group}
		if errors.Is(err, context.DeadlineExceeded) {
			data["timeout"] = "phase deadline exceeded"
		}
		_ = a.Recorder.Fail(ctx, inc.ID, stepID, "collector", "Fetch logs", err, data)
		return "", &pipeline.PhaseError{Phase: "collector", Err: fmt.Errorf("fetch_log: %w", err)}
	}
	if err := a.Recorder.Complete(ctx, stepID); err != nil {
		return "", err
	}

	sess.fetched = true
	if len(text) > maxLogBytes {
		text = text[:maxLogBytes]
	}
	sess.logText = text
	return text, nil
}

func (a *Agent) retrieveKB(ctx context.Context, inc *incidents.Incident, sess *session, rawArgs string) (string, error) {
	var args struct {
		stepArgs
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("error: bad arguments: %v", err), nil
	}
	stepID, err := a.Recorder.Begin(ctx, inc.ID, "analyst", args.PhaseTitle, args.Synopsis)
	if err != nil {
		return "", err
	}

	query := args.Query
	if query == "" {
		query = sess.logText
	}
	topK := a.TopK
	if topK <= 0 {
		topK = 3
	}
	pctx, cancel := a.phaseContext(ctx)
	docs, err := a.KB.Retrieve(pctx, query, topK)
	cancel()
	if err != nil {
		data := map[string]string{"top_k": strconv.Itoa(topK)}
		if errors.Is(err, context.DeadlineExceeded) {
			data["timeout"] = "phase deadline exceeded"
		}
		_ = a.Recorder.Fail(ctx, inc.ID, stepID, "analyst", "Knowledge-base retrieval", err, data)
		return "", &pipeline.PhaseError{Phase: "analyst", Err: fmt.Errorf("retrieve_kb: %w", err)}
	}
	if err := a.Recorder.Complete(ctx, stepID); err != nil {
		return "", err
	}

	sess.retrieved = true
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.Text)
	}
	return strings.Join(texts, "\n\n"), nil
}

func (a *Agent) storeReport(ctx context.Context, inc *incidents.Incident, sess *session, rawArgs string) (string, error) {
	var args struct {
		stepArgs
		ReportHTML string           `json:"report_html"`
		Finding    analysis.Finding `json:"finding"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return fmt.Sprintf("error: bad arguments: %v", err), nil
	}
	stepID, err := a.Recorder.Begin(ctx, inc.ID, "supervisor", args.PhaseTitle, args.Synopsis)
	if err != nil {
		return "", err
	}

	pctx, cancel := a.phaseContext(ctx)
	_, err = a.Ledger.SaveReport(pctx, inc.ID, args.Finding, args.ReportHTML)
	cancel()
	if err != nil {
		_ = a.Recorder.Fail(ctx, inc.ID, stepID, "supervisor", "Store report", err, nil)
		return "", &pipeline.PhaseError{Phase: "supervisor", Err: fmt.Errorf("store_report: %w", err)}
	}
	if err := a.Recorder.Complete(ctx, stepID); err != nil {
		return "", err
	}

	sess.stored = true
	return "Report stored successfully.", nil
}

func toolDefinitions() []openai.Tool {
	stepProps := map[string]jsonschema.Definition{
		"phase_title": {Type: jsonschema.String, Description: "Short, human-readable title for the UI"},
		"synopsis":    {Type: jsonschema.String, Description: "1-2 sentence description of the step"},
	}

	fetchProps := map[string]jsonschema.Definition{}
	for k, v := range stepProps {
		fetchProps[k] = v
	}

	retrieveProps := map[string]jsonschema.Definition{
		"query": {Type: jsonschema.String, Description: "Query text built from the fetched log content"},
	}
	for k, v := range stepProps {
		retrieveProps[k] = v
	}

	storeProps := map[string]jsonschema.Definition{
		"report_html": {Type: jsonschema.String, Description: "Full incident report as HTML"},
		"finding": {
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"issue":       {Type: jsonschema.String},
				"root_cause":  {Type: jsonschema.String},
				"mitigations": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
				"evidence":    {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
			},
			Required: []string{"issue", "root_cause", "mitigations", "evidence"},
		},
	}
	for k, v := range stepProps {
		storeProps[k] = v
	}

	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "fetch_log",
				Description: "Fetch the raw log file for the incident from the configured log backend.",
				Parameters: jsonschema.Definition{
					Type:       jsonschema.Object,
					Properties: fetchProps,
					Required:   []string{"phase_title", "synopsis"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "retrieve_kb",
				Description: "Retrieve the most relevant knowledge-base passages for the given query.",
				Parameters: jsonschema.Definition{
					Type:       jsonschema.Object,
					Properties: retrieveProps,
					Required:   []string{"query", "phase_title", "synopsis"},
				},
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        "store_report",
				Description: "Persist the final incident report (structured finding plus HTML narrative).",
				Parameters: jsonschema.Definition{
					Type:       jsonschema.Object,
					Properties: storeProps,
					Required:   []string{"report_html", "finding", "phase_title", "synopsis"},
				},
			},
		},
	}
}
