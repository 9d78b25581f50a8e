// Removes exposure flicker from a timelapse captured as a sequence of still frames.
//
// Details:
//
//	Frames are read in capture order and corrected by one of six temporal strategies.
//	The default, temporal_matching, replaces every pixel's brightness with the mean
//	brightness of that pixel over the surrounding frames while keeping the hue and
//	saturation of the frame itself. The global strategies instead shift whole frames so
//	their mean brightness (or hue, saturation, colour) follows a sliding average of the
//	sequence. Corrected frames are written under their original names.
//
// Usage:
//
//	go run . run \
//	 --path='Demo/Input/*.jpeg' \
//	 --strategy=temporal_matching \
//	 --output=exp_corrected_tmp
//
//	go run . analyze --path='exp_corrected_tmp/*.jpeg'
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Fatalf("deflicker failed: %v", err)
	}
}
