package sampler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
)

// HostSource reads counters from the local host via gopsutil.
type HostSource struct{}

// NewHostSource returns a Source backed by the local operating system.
func NewHostSource() *HostSource { return &HostSource{} }

var _ Source = (*HostSource)(nil)

func (HostSource) CPUTimes(ctx context.Context) (CPUTimes, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return CPUTimes{}, fmt.Errorf("reading cpu times: %w", err)
	}
	if len(times) == 0 {
		return CPUTimes{}, errors.New("reading cpu times: no data")
	}
	t := times[0]
	// Guest time is already accounted for in User on Linux.
	total := t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
	return CPUTimes{Idle: t.Idle + t.Iowait, Total: total}, nil
}

func (HostSource) CPUPercent(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("reading cpu percent: %w", err)
	}
	if len(pct) == 0 {
		return 0, errors.New("reading cpu percent: no data")
	}
	return pct[0], nil
}

func (HostSource) Temperature(ctx context.Context) (float64, error) {
	// gopsutil returns partial results alongside a warnings error when some
	// sensors fail, so results are inspected before the error.
	temps, err := host.SensorsTemperaturesWithContext(ctx)
	if len(temps) == 0 {
		if err == nil {
			err = errors.New("no sensors")
		}
		return 0, fmt.Errorf("reading temperatures: %w", err)
	}
	return maxCPUTemperature(temps)
}

// maxCPUTemperature returns the highest reading from CPU sensor chips.
func maxCPUTemperature(temps []host.TemperatureStat) (float64, error) {
	var maxTemp float64
	var found bool
	for _, t := range temps {
		if !isCPUSensor(t.SensorKey) {
			continue
		}
		if t.Temperature > maxTemp {
			maxTemp = t.Temperature
			found = true
		}
	}
	if !found {
		return 0, errors.New("no CPU temperature sensor found")
	}
	return maxTemp, nil
}

func isCPUSensor(key string) bool {
	key = strings.ToLower(key)
	for _, prefix := range []string{"coretemp", "k10temp", "zenpower", "cpu", "package", "tctl", "acpitz"} {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (HostSource) Memory(ctx context.Context) (int64, int64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("reading memory: %w", err)
	}
	return int64(vm.Used), int64(vm.Total), nil
}

func (HostSource) Disk(ctx context.Context, path string) (int64, int64, error) {
	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, 0, fmt.Errorf("reading disk usage for %s: %w", path, err)
	}
	return int64(usage.Used), int64(usage.Total), nil
}

func (HostSource) Network(ctx context.Context) (int64, int64, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return 0, 0, fmt.Errorf("reading network counters: %w", err)
	}
	in, out := sumNetwork(counters)
	return in, out, nil
}

// sumNetwork totals received/sent bytes over non-loopback interfaces.
func sumNetwork(counters []net.IOCountersStat) (int64, int64) {
	var in, out uint64
	for _, c := range counters {
		if c.Name == "lo" || strings.HasPrefix(c.Name, "lo0") {
			continue
		}
		in += c.BytesRecv
		out += c.BytesSent
	}
	return int64(in), int64(out)
}
