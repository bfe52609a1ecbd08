package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/langcoach/internal/capture"
	"github.com/nikhilbhutani/langcoach/internal/practice"
	"github.com/nikhilbhutani/langcoach/internal/session"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record one utterance from an audio file and transcribe it",
	Long: `Streams an audio file through the capture controller as if it were a
microphone, transcribes the recording and stores it as a practice session.
Recording stops when the file ends, when --duration elapses or on Ctrl-C.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().String("file", "", "Audio file to stream (webm/ogg/wav)")
	recordCmd.Flags().String("language", "", "Language ID to practise")
	recordCmd.Flags().String("lang-code", "", "ISO-639-1 hint passed to the transcription provider")
	recordCmd.Flags().Bool("reply", false, "Ask the tutor for a reply and store it with the session")
	recordCmd.Flags().Duration("duration", 0, "Stop recording after this long (0 = until the file ends)")
	recordCmd.Flags().Int("chunk-size", 16*1024, "Bytes per captured chunk")
	recordCmd.Flags().Duration("chunk-interval", 0, "Delay between chunks to simulate a live microphone")
	recordCmd.MarkFlagRequired("file")
	recordCmd.MarkFlagRequired("language")
}

func runRecord(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	langStr, _ := cmd.Flags().GetString("language")
	langCode, _ := cmd.Flags().GetString("lang-code")
	withReply, _ := cmd.Flags().GetBool("reply")
	maxDuration, _ := cmd.Flags().GetDuration("duration")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")
	interval, _ := cmd.Flags().GetDuration("chunk-interval")

	languageID, err := uuid.Parse(langStr)
	if err != nil {
		return fmt.Errorf("invalid --language: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := newClient()
	cfg := practice.Config{LanguageID: languageID, LanguageCode: langCode}
	if withReply {
		cfg.Coach = c
	}
	pipeline := practice.NewPipeline(c, c, cfg)

	device := &capture.FileDevice{Path: path, ChunkSize: chunkSize, Interval: interval}
	ctrl := capture.NewController(device, capture.DefaultContentType, pipeline.OnComplete(context.Background()))

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	logger.Info("recording", "file", path)

	var timeout <-chan time.Time
	if maxDuration > 0 {
		timer := time.NewTimer(maxDuration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctrl.Drained():
	case <-timeout:
		logger.Info("duration reached")
	case <-ctx.Done():
		logger.Info("interrupted")
	}

	blob, err := ctrl.Stop()
	if err != nil {
		return err
	}
	logger.Info("recording stopped", "bytes", len(blob.Data))

	res := <-pipeline.Results()
	return printResult(res)
}

func printResult(res practice.Result) error {
	switch res.Outcome {
	case practice.OutcomeFailed:
		return res.Err
	case practice.OutcomeNoSpeech:
		fmt.Println(res.Display)
		return nil
	}

	fmt.Println(res.Display)
	if res.Reply != nil {
		fmt.Printf("\n%s\n", res.Reply.Content)
	}
	if res.ReplyErr != nil {
		logger.Warn("no tutor reply", "error", res.ReplyErr)
	}

	if res.RecordErr != nil {
		return res.RecordErr
	}
	switch res.Receipt.Status {
	case session.StatusStored:
		logger.Info("session saved", "id", res.Receipt.Session.ID)
	case session.StatusQueued:
		logger.Info("session queued", "task_id", res.Receipt.TaskID)
	}
	return nil
}
