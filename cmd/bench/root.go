package bench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/cmdclient/cmd/util"
	"github.com/ValentinKolb/cmdclient/rpc/client"
	"github.com/ValentinKolb/cmdclient/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cmd")

var (
	// BenchCmd sends commands from many goroutines over one shared client
	BenchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Throughput test for a command peer",
		Long:    "Sends commands from many goroutines over one shared client and connection.",
		RunE:    run,
		PreRunE: processBenchConfig,
	}
	benchWorkers     = 10
	benchSends       = 1000
	benchKinds       = []common.CommandKind{common.CmdKMessage}
	benchPayloadSize = 64
	benchTarget      = netip.MustParseAddr("127.0.0.1")
)

func init() {
	key := "workers"
	BenchCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines sending concurrently"))
	key = "sends"
	BenchCmd.Flags().Int(key, 1000, util.WrapString("Number of commands each goroutine sends"))
	key = "kinds"
	BenchCmd.Flags().String(key, "Message", util.WrapString("Command kinds to send in rotation (comma separated - e.g. Message,UserExit)"))
	key = "payload-size"
	BenchCmd.Flags().Int(key, 64, util.WrapString("Size of the text payload in bytes, kinds without payload ignore it"))
	key = "target"
	BenchCmd.Flags().String(key, "127.0.0.1", util.WrapString("Address descriptor put into every command"))
	key = "prom"
	BenchCmd.Flags().Bool(key, false, util.WrapString("Print the client metrics in Prometheus format after the run"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	benchWorkers = max(viper.GetInt("workers"), 1)
	benchSends = max(viper.GetInt("sends"), 1)
	benchPayloadSize = max(viper.GetInt("payload-size"), 0)

	kinds, err := parseKinds(viper.GetString("kinds"))
	if err != nil {
		return err
	}
	benchKinds = kinds

	target, err := netip.ParseAddr(viper.GetString("target"))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInvalidAddress, err)
	}
	benchTarget = target

	return nil
}

// result holds the outcome of one bench run
type result struct {
	timer    gometrics.Timer
	meter    gometrics.Meter
	sent     *xsync.Counter
	errors   *xsync.Counter // failures that left the stream intact
	perKind  *xsync.MapOf[common.CommandKind, *xsync.Counter]
	duration time.Duration

	// a stream error may leave a partial frame behind, the run stops at the first one
	streamErrors *xsync.Counter
	aborted      atomic.Bool
	abortOnce    sync.Once
	abortErr     error
}

// abort records the first stream error and stops all workers
func (r *result) abort(err error) {
	r.abortOnce.Do(func() {
		r.abortErr = err
		r.aborted.Store(true)
	})
}

func run(_ *cobra.Command, _ []string) error {
	config := util.GetClientConfig()

	fmt.Println("Throughput test for command peers")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Workers: %d, sends per worker: %d, kinds: %v\n", benchWorkers, benchSends, benchKinds)
	fmt.Println()

	c, err := util.NewConnectedClient(config)
	if err != nil {
		return err
	}
	defer c.Close()

	fmt.Println("starting...")
	res := runBench(c, commandSource(benchKinds, benchTarget, benchPayloadSize), benchWorkers, benchSends)
	printResult(res)

	if viper.GetBool("prom") {
		fmt.Println()
		metrics.WritePrometheus(os.Stdout, false)
	}

	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, res, config); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	if res.aborted.Load() {
		return fmt.Errorf("run stopped, the stream is no longer usable: %w", res.abortErr)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// sender is the part of the client the bench needs
type sender interface {
	Send(cmd common.Command) error
}

var _ sender = (*client.CmdClient)(nil)

// parseKinds parses a comma separated list of command kinds
func parseKinds(list string) ([]common.CommandKind, error) {
	var kinds []common.CommandKind
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		kind, err := common.ParseCommandKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no command kinds given")
	}
	return kinds, nil
}

// commandSource returns a function that yields the i-th command of the rotation.
// Message and login/logoff kinds carry a text payload, all others none.
func commandSource(kinds []common.CommandKind, target netip.Addr, payloadSize int) func(int) common.Command {
	text := strings.Repeat("x", payloadSize)
	commands := make([]common.Command, len(kinds))
	for i, kind := range kinds {
		switch kind {
		case common.CmdKMessage, common.CmdKClientLoginInform, common.CmdKClientLogOffInform, common.CmdKIsNameExists:
			commands[i] = common.NewCommand(kind, target, text)
		default:
			commands[i] = common.NewCommand(kind, target, nil)
		}
	}
	return func(i int) common.Command {
		return commands[i%len(commands)]
	}
}

// runBench sends workers*sends commands through s and collects timings
func runBench(s sender, next func(int) common.Command, workers, sends int) *result {
	res := &result{
		timer:   gometrics.NewTimer(),
		meter:   gometrics.NewMeter(),
		sent:    xsync.NewCounter(),
		errors:  xsync.NewCounter(),
		perKind: xsync.NewMapOf[common.CommandKind, *xsync.Counter](),

		streamErrors: xsync.NewCounter(),
	}
	defer res.meter.Stop()

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < sends && !res.aborted.Load(); i++ {
				cmd := next(w*sends + i)

				t := time.Now()
				err := s.Send(cmd)
				res.timer.UpdateSince(t)

				var streamErr *common.StreamIOError
				if errors.As(err, &streamErr) {
					res.streamErrors.Inc()
					res.abort(err)
					Logger.Errorf("(%s) - stream failed, stopping: %v", cmd.Kind(), err)
					return
				}
				if err != nil {
					res.errors.Inc()
					Logger.Errorf("(%s) - error sending command: %v", cmd.Kind(), err)
					continue
				}
				res.meter.Mark(1)
				res.sent.Inc()
				counter, _ := res.perKind.LoadOrCompute(cmd.Kind(), xsync.NewCounter)
				counter.Inc()
			}
		}(w)
	}
	wg.Wait()
	res.duration = time.Since(start)

	return res
}

// printResult prints the result of a bench run in a formatted way
func printResult(res *result) {
	snapshot := res.timer.Snapshot()
	sent := res.sent.Value()
	opsPerSec := float64(sent) / max(res.duration.Seconds(), 1e-9)

	fmt.Printf("%-20s%d sent, %d failed, %d stream errors in %s\n", "total", sent, res.errors.Value(), res.streamErrors.Value(), res.duration.Round(time.Millisecond))
	fmt.Printf("%-20s%.0f ops/sec (meter mean %.0f ops/sec)\n", "throughput", opsPerSec, res.meter.Snapshot().RateMean())
	fmt.Printf("%-20smean %s, p50 %s, p99 %s, max %s\n", "latency",
		time.Duration(snapshot.Mean()),
		time.Duration(snapshot.Percentile(0.5)),
		time.Duration(snapshot.Percentile(0.99)),
		time.Duration(snapshot.Max()),
	)

	for _, kind := range sortedKinds(res) {
		counter, _ := res.perKind.Load(kind)
		fmt.Printf("%-20s%d\n", kind.String(), counter.Value())
	}
}

// sortedKinds returns the kinds seen in a run ordered by wire code
func sortedKinds(res *result) []common.CommandKind {
	var kinds []common.CommandKind
	res.perKind.Range(func(kind common.CommandKind, _ *xsync.Counter) bool {
		kinds = append(kinds, kind)
		return true
	})
	sort.Slice(kinds, func(i, j int) bool {
		ci, _ := kinds[i].Code()
		cj, _ := kinds[j].Code()
		return ci < cj
	})
	return kinds
}

// writeResultsToCSV writes bench results to a CSV file
func writeResultsToCSV(csvPath string, res *result, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{
		"Kind", "Sent", "Failed", "StreamErrors", "DurationMs", "MeanNs", "P99Ns",
		"Endpoint", "Transport", "Serializer", "Guard", "GuardPermits",
		"Workers", "SendsPerWorker", "PayloadSize",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	snapshot := res.timer.Snapshot()
	for _, kind := range sortedKinds(res) {
		counter, _ := res.perKind.Load(kind)
		row := []string{
			kind.String(),
			strconv.FormatInt(counter.Value(), 10),
			strconv.FormatInt(res.errors.Value(), 10),
			strconv.FormatInt(res.streamErrors.Value(), 10),
			strconv.FormatInt(res.duration.Milliseconds(), 10),
			fmt.Sprintf("%.0f", snapshot.Mean()),
			fmt.Sprintf("%.0f", snapshot.Percentile(0.99)),
			config.Endpoint,
			config.Transport,
			config.Serializer,
			string(config.Guard),
			strconv.Itoa(config.GuardPermits),
			strconv.Itoa(benchWorkers),
			strconv.Itoa(benchSends),
			strconv.Itoa(benchPayloadSize),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for kind %s: %v", kind, err)
		}
	}

	return nil
}
