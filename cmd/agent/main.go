package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chadiek/followup-call/internal/agent"
	"github.com/chadiek/followup-call/internal/asr"
	"github.com/chadiek/followup-call/internal/audio"
	"github.com/chadiek/followup-call/internal/capture"
	"github.com/chadiek/followup-call/internal/config"
	"github.com/chadiek/followup-call/internal/llm"
	"github.com/chadiek/followup-call/internal/store"
	"github.com/chadiek/followup-call/internal/tts"
)

const sampleRate = 44100

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	voiceMode := flag.Bool("voice", false, "talk over microphone and speaker instead of the terminal")
	flag.Parse()

	cfg := config.Load()

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("open customer database: %v", err)
	}

	orch := agent.New(st, cfg.AgentName, cfg.CompanyName)
	tools := &agent.Toolset{Store: st, History: orch.History}
	responder := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModelID,
		agent.SystemPrompt(cfg.AgentName, cfg.CompanyName), tools)
	orch.SetResponder(responder)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *voiceMode {
		err = runVoiceCall(ctx, cfg, orch)
	} else {
		err = runTextCall(ctx, orch)
	}
	if err != nil {
		log.Fatalf("call failed: %v", err)
	}
}

// runTextCall drives one call through the terminal: the agent's turns are
// printed, the caller types theirs.
func runTextCall(ctx context.Context, orch *agent.Orchestrator) error {
	greeting, err := orch.Start()
	if err != nil {
		return err
	}
	fmt.Printf("Agent: %s\n", greeting)

	scanner := bufio.NewScanner(os.Stdin)
	for orch.State() == agent.StateAwaitingInput {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		reply, err := orch.SubmitUtterance(ctx, text)
		if err != nil {
			return err
		}
		fmt.Printf("Agent: %s\n", reply)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return finishCall(orch)
}

// runVoiceCall drives one call over the microphone and speaker: record until
// silence, transcribe, reason, speak the reply.
func runVoiceCall(ctx context.Context, cfg config.Config, orch *agent.Orchestrator) error {
	devices, err := audio.Open(sampleRate)
	if err != nil {
		return err
	}
	defer devices.Close()

	recorder := capture.NewRecorder(devices.Mic, sampleRate)
	transcriber := asr.NewWhisperClient(cfg.OpenAIKey)
	voice := tts.NewElevenLabsClient(cfg.ElevenLabsKey, cfg.ElevenLabsVoiceID)

	greeting, err := orch.Start()
	if err != nil {
		return err
	}
	speak(ctx, voice, devices.Speaker, greeting)

	for orch.State() == agent.StateAwaitingInput {
		if ctx.Err() != nil {
			break
		}
		fmt.Println("Listening...")
		clip, err := recorder.RecordUntilSilence(ctx, capture.Options{})
		if err != nil {
			if errors.Is(err, capture.ErrNoSpeech) {
				// Prolonged silence reads as the caller hanging up.
				log.Printf("no speech detected, wrapping up the call")
				farewell, err := orch.SubmitUtterance(ctx, "goodbye")
				if err != nil {
					return err
				}
				speak(ctx, voice, devices.Speaker, farewell)
				break
			}
			if errors.Is(err, context.Canceled) {
				break
			}
			return err
		}

		text, err := transcriber.Transcribe(ctx, clip.WAV())
		if err != nil {
			log.Printf("transcription failed: %v", err)
			continue
		}
		if text == "" {
			continue
		}
		fmt.Printf("You: %s\n", text)

		reply, err := orch.SubmitUtterance(ctx, text)
		if err != nil {
			return err
		}
		speak(ctx, voice, devices.Speaker, reply)
	}

	return finishCall(orch)
}

// speak plays the agent's turn, falling back to text-only when synthesis fails.
func speak(ctx context.Context, voice *tts.ElevenLabsClient, speaker *audio.Speaker, text string) {
	fmt.Printf("Agent: %s\n", text)
	pcmCh, errCh := voice.StreamPCM(ctx, text)
	for chunk := range pcmCh {
		speaker.WritePCM(chunk)
	}
	if err := <-errCh; err != nil {
		log.Printf("speech synthesis failed: %v", err)
	}
}

// finishCall folds the call back into the customer record and prints the result.
func finishCall(orch *agent.Orchestrator) error {
	result, err := orch.End()
	if err != nil {
		if errors.Is(err, agent.ErrNoActiveCall) {
			return nil
		}
		return err
	}

	fmt.Println()
	fmt.Println("=== Call Summary ===")
	fmt.Printf("Customer:  %s\n", result.Customer)
	fmt.Printf("Sentiment: %s\n", result.Summary.Sentiment)
	if result.Summary.Complaint != "" {
		fmt.Printf("Complaint: %s\n", result.Summary.Complaint)
	}
	fmt.Printf("Summary:   %s\n", result.Summary.ShortSummary)
	if result.DatabaseUpdated {
		fmt.Println("Customer record updated.")
	} else {
		fmt.Println("Warning: customer record could not be updated.")
	}
	return nil
}
