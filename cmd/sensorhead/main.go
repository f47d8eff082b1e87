// Command sensorhead is a thin composition-root binary wiring the metadata
// decoder, HDR stage and FOV router together for local smoke-testing. It
// carries no network transport: it reads a raw capture file — a flat
// sequence of (metadata row, raw payload) records, the same shape the wire
// format itself uses (spec.md §3, §6) — and drives the router's poll loop
// against it, mirroring cmd/lidar's single-binary wiring of parser, stats
// and HTTP status into one process.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dinesh-mcw/m30-sub000/internal/calib"
	"github.com/dinesh-mcw/m30-sub000/internal/config"
	"github.com/dinesh-mcw/m30-sub000/internal/hdr"
	"github.com/dinesh-mcw/m30-sub000/internal/metadata"
	"github.com/dinesh-mcw/m30-sub000/internal/monitoring"
	"github.com/dinesh-mcw/m30-sub000/internal/roi"
	"github.com/dinesh-mcw/m30-sub000/internal/router"
)

var (
	capturePath   = flag.String("capture", "", "path to a raw ROI capture file (required)")
	mappingPath   = flag.String("mapping", "", "angle mapping table file (.csv or .bin)")
	pixelMaskPath = flag.String("pixel-mask", "", "pixel mask file")
	watchDir      = flag.String("watch-dir", "", "directory to watch for calibration file changes (optional)")
	headNum       = flag.Uint("head", 0, "sensor head number (0-7)")
	sensorID      = flag.Uint("sensor-id", 0, "sensor identifier carried into every segment")
	perms         = flag.Uint("perms", 1, "raw payload permutation count P (1 or 3)")
	pollInterval  = flag.Duration("poll-interval", 10*time.Millisecond, "FOV router poll interval")
)

func main() {
	flag.Parse()

	if *capturePath == "" {
		log.Fatal("-capture is required")
	}

	cfg := &config.Config{
		MappingPath:   *mappingPath,
		PixelMaskPath: *pixelMaskPath,
		HeadNum:       uint8(*headNum),
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	store := calib.NewStore()
	if cfg.MappingPath != "" || cfg.PixelMaskPath != "" {
		if err := store.Reload(cfg.MappingPath, cfg.PixelMaskPath); err != nil {
			log.Printf("initial calibration load failed, continuing degraded: %v", err)
		}
	}
	if *watchDir != "" {
		mappingFile := fileNameOf(cfg.MappingPath)
		maskFile := fileNameOf(cfg.PixelMaskPath)
		if err := store.WatchDir(*watchDir, mappingFile, maskFile); err != nil {
			log.Printf("calibration watch disabled: %v", err)
		}
	}
	defer store.Close()

	f, err := os.Open(*capturePath)
	if err != nil {
		log.Fatalf("open capture file: %v", err)
	}
	defer f.Close()

	r := router.New(int(cfg.HeadNum), uint32(*sensorID), store)
	defer r.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go pollSegments(ctx, r, *pollInterval)

	monitoring.Logf("sensorhead: replaying %s (head %d, sensor %d, perms %d)",
		*capturePath, cfg.HeadNum, *sensorID, *perms)

	n, err := replay(ctx, f, int(*perms), NewHDRDecoder(), r)
	if err != nil && err != io.EOF {
		log.Fatalf("replay stopped early after %d ROIs: %v", n, err)
	}
	monitoring.Logf("sensorhead: replayed %d ROIs, shutting down", n)
}

func fileNameOf(path string) string {
	if path == "" {
		return ""
	}
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// HDRDecoder pairs a per-record decode with the one-ROI-latency HDR merge
// every stream of ROIs must pass through before tap rotation (spec.md
// §4.3). It owns the hdr.Stage so callers don't have to thread metadata
// bytes through separately from the decoded view.
type HDRDecoder struct {
	stage *hdr.Stage
}

// NewHDRDecoder returns a decoder ready for the first ROI of a session.
func NewHDRDecoder() *HDRDecoder {
	return &HDRDecoder{stage: hdr.NewStage()}
}

// Feed runs one already-decoded metadata view and raw payload through the
// HDR stage, returning the ROI (if any) ready for routing.
func (d *HDRDecoder) Feed(metaRow []byte, v metadata.View, payload []byte, perms int) (metadata.View, roi.Raw, bool, error) {
	height := int(v.ROINumRows())
	cur, err := roi.Decode(payload, height, perms)
	if err != nil {
		return metadata.View{}, roi.Raw{}, false, fmt.Errorf("decode roi payload: %w", err)
	}

	result := d.stage.Submit(metaRow, v, cur)
	if result.Skip {
		return metadata.View{}, roi.Raw{}, false, nil
	}

	outView, err := metadata.Decode(result.OutMeta)
	if err != nil {
		return metadata.View{}, roi.Raw{}, false, fmt.Errorf("decode hdr-buffered metadata: %w", err)
	}
	return outView, result.Out, true, nil
}

// replay reads (metadata row, raw payload) records from r until EOF or ctx
// cancellation, feeding each through dec and the router in turn. It returns
// the number of ROIs routed.
func replay(ctx context.Context, r io.Reader, perms int, dec *HDRDecoder, rt *router.Router) (int, error) {
	metaRow := make([]byte, metadata.MetadataRowSize)
	routed := 0

	for {
		select {
		case <-ctx.Done():
			return routed, ctx.Err()
		default:
		}

		if _, err := io.ReadFull(r, metaRow); err != nil {
			if err == io.EOF {
				return routed, io.EOF
			}
			return routed, fmt.Errorf("read metadata row: %w", err)
		}

		hdrView, err := metadata.Decode(metaRow)
		if err != nil {
			monitoring.Logf("sensorhead: dropping malformed record: %v", err)
			continue
		}

		payloadLen := roi.Width * int(hdrView.ROINumRows()) * roi.TripletSize * roi.Freqs * perms * 2
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return routed, fmt.Errorf("read roi payload: %w", err)
		}

		v, raw, ok, err := dec.Feed(metaRow, hdrView, payload, perms)
		if err != nil {
			monitoring.Logf("sensorhead: dropping malformed record: %v", err)
			continue
		}
		if !ok {
			continue
		}

		rt.ProcessROI(v, raw)
		routed++
	}
}

// pollSegments drains completed segments from every FOV slot at a fixed
// interval, the same shape the outer program's real poll loop uses against
// FOVsAvailable/GetData (spec.md §4.8).
func pollSegments(ctx context.Context, r *router.Router, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, idx := range r.FOVsAvailable() {
				seg := r.GetData(idx)
				if seg == nil {
					continue
				}
				monitoring.Logf("sensorhead: fov=%d rows=%d cols=%d gcf=%.1fHz maxRange=%.2fm",
					seg.FOVIndex, seg.ImageSize.Rows, seg.ImageSize.Cols, seg.GCFHz, seg.MaxUnambiguousM)
			}
		}
	}
}
