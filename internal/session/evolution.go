package session

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dragonhaven/server/internal/domain"
	"github.com/dragonhaven/server/internal/genai"
	"github.com/google/uuid"
)

type ritualJob struct {
	dragonID   int
	name       string
	element    domain.Element
	toStage    domain.Stage
	startFrame *genai.Image
}

// BeginRitual starts the asset pipeline for the pending evolution: portrait,
// background removal, then the transformation video. The pipeline runs in a
// goroutine and re-enters the engine when it finishes. Only one ritual runs
// at a time.
func (e *Engine) BeginRitual() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evo.pending == nil {
		return ErrNoPendingEvolution
	}
	if e.gen == nil {
		return ErrGenerationUnavailable
	}
	if !e.ritualMu.TryLock() {
		return ErrRitualInProgress
	}

	d := e.state.FindDragon(e.evo.pending.dragonID)
	if d == nil {
		e.ritualMu.Unlock()
		return ErrDragonNotFound
	}

	job := ritualJob{
		dragonID: d.ID,
		name:     d.Name,
		element:  d.Element,
		toStage:  e.evo.pending.toStage,
	}
	if img, ok := parseDataURL(d.PortraitURL); ok {
		job.startFrame = img
	}

	e.evo.phase = EvoGenerating
	e.evo.portrait = ""
	e.evo.video = ""
	e.publish(Event{Type: EventEvolutionProgress, DragonID: d.ID, Message: "Summoning the new form"})

	go e.runRitual(job)
	return nil
}

func (e *Engine) runRitual(job ritualJob) {
	defer e.ritualMu.Unlock()

	portrait, err := e.gen.GenerateImage(e.ctx, portraitPrompt(job), genai.Size1K)
	if err != nil {
		e.logger.Error("portrait generation failed", "dragon_id", job.dragonID, "error", err)
		e.failRitual(job.dragonID, "The new form refused to appear")
		return
	}

	e.publish(Event{Type: EventEvolutionProgress, DragonID: job.dragonID, Message: "Refining the portrait"})
	if cut, err := e.gen.RemoveBackground(e.ctx, portrait); err == nil {
		portrait = cut
	} else {
		e.logger.Warn("background removal failed, using raw portrait", "dragon_id", job.dragonID, "error", err)
	}

	e.publish(Event{Type: EventEvolutionProgress, DragonID: job.dragonID, Message: "Weaving the transformation"})
	video, err := e.gen.GenerateVideo(e.ctx, genai.VideoRequest{
		Prompt:     videoPrompt(job),
		StartFrame: job.startFrame,
		EndFrame:   portrait,
	})
	if err != nil {
		// A portrait alone is enough to finish the ritual.
		e.logger.Warn("transformation video failed", "dragon_id", job.dragonID, "error", err)
		video = nil
	}

	e.finishRitual(job.dragonID, portrait, video)
}

func (e *Engine) failRitual(dragonID int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evo.pending == nil || e.evo.pending.dragonID != dragonID {
		return
	}
	e.evo.phase = EvoIdle
	e.publish(Event{Type: EventEvolutionError, DragonID: dragonID, Message: message})
}

func (e *Engine) finishRitual(dragonID int, portrait *genai.Image, video []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// The evolution may have been skipped while the pipeline ran; discard
	// the assets in that case.
	if e.evo.pending == nil || e.evo.pending.dragonID != dragonID {
		return
	}

	e.evo.portrait = dataURL(portrait.MIME, portrait.Data)
	if len(video) > 0 {
		e.evo.video = dataURL("video/mp4", video)
	}
	e.evo.phase = EvoReady
	e.publish(Event{Type: EventEvolutionReady, DragonID: dragonID})
}

// Play marks the transformation cinematic as playing.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evo.pending == nil || e.evo.phase != EvoReady {
		return ErrNoPendingEvolution
	}
	e.evo.phase = EvoPlaying
	return nil
}

// CompleteEvolution commits the pending stage: the persisted record advances,
// the portrait is swapped in when the pipeline produced one, and a milestone
// entry lands in the chronicle. It is also the skip and continue-anyway path,
// valid from any ritual phase.
func (e *Engine) CompleteEvolution(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.evo.pending == nil {
		return ErrNoPendingEvolution
	}
	d := e.state.FindDragon(e.evo.pending.dragonID)
	if d == nil {
		e.evo = evolutionState{phase: EvoIdle}
		return ErrDragonNotFound
	}

	newStage := e.evo.pending.toStage
	d.Stage = newStage
	if e.evo.portrait != "" {
		d.PortraitURL = e.evo.portrait
	}
	d.History = append(d.History, domain.HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		Type:      domain.HistoryMilestoneComplete,
		Content:   fmt.Sprintf("%s evolved into the %s stage!", d.Name, newStage),
		Role:      domain.RoleSystem,
	})

	e.evo = evolutionState{phase: EvoIdle}
	e.persist(ctx)
	e.publish(Event{Type: EventEvolved, DragonID: d.ID, Stage: newStage})
	e.logger.Info("evolution committed", "dragon_id", d.ID, "stage", newStage)
	return nil
}

// MarkProjectComplete promotes a dragon straight to ancient, bypassing the
// resolver and the ritual. Destructive in spirit, so it demands confirm.
func (e *Engine) MarkProjectComplete(ctx context.Context, dragonID int, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	d := e.state.FindDragon(dragonID)
	if d == nil {
		return ErrDragonNotFound
	}

	d.Stage = domain.StageAncient
	d.History = append(d.History, domain.HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: e.now(),
		Type:      domain.HistoryMilestoneComplete,
		Content:   fmt.Sprintf("%s's quest is complete. It ascends as a legendary ancient dragon!", d.Name),
		Role:      domain.RoleSystem,
	})
	if e.evo.pending != nil && e.evo.pending.dragonID == dragonID {
		e.evo = evolutionState{phase: EvoIdle}
	}

	e.persist(ctx)
	e.publish(Event{Type: EventEvolved, DragonID: d.ID, Stage: domain.StageAncient})
	e.logger.Info("project marked complete", "dragon_id", d.ID)
	return nil
}

func portraitPrompt(job ritualJob) string {
	return fmt.Sprintf(
		"A majestic %s-element dragon named %s at its %s growth stage, fantasy digital art, full body, centered, vibrant colors.",
		job.element, job.name, job.toStage)
}

func videoPrompt(job ritualJob) string {
	return fmt.Sprintf(
		"A %s-element dragon transforming into its %s form in a burst of glowing light, smooth magical metamorphosis.",
		job.element, job.toStage)
}

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// parseDataURL decodes a base64 data URL back into an image. Returns false
// for anything else, including plain http references.
func parseDataURL(s string) (*genai.Image, bool) {
	if !strings.HasPrefix(s, "data:") {
		return nil, false
	}
	rest := strings.TrimPrefix(s, "data:")
	meta, payload, found := strings.Cut(rest, ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	return &genai.Image{Data: data, MIME: strings.TrimSuffix(meta, ";base64")}, true
}
