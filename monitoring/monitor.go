// Package monitoring serves the live state of a running simulation over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"reflect"
	"runtime/pprof"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/adkrueger/Cachelab/mem/cache"
	"github.com/adkrueger/Cachelab/mem/trace"
	"github.com/adkrueger/Cachelab/sim"
	"github.com/adkrueger/Cachelab/sim/hooking"
)

// componentState is the monitor's own copy of a simulator's state. The
// simulator is never read from a server goroutine.
type componentState struct {
	Name       string
	Geometry   cache.Geometry
	Stats      cache.Stats
	Clock      uint64
	LastAccess cache.AccessInfo
}

// Monitor can turn a simulation into a server and allows external monitoring
// of the simulation. It observes simulators and replayers as a hook.
type Monitor struct {
	portNumber  int
	openBrowser bool

	lock       sync.Mutex
	components []*componentState
	byDomain   map[hooking.Hookable]*componentState

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
	replayBars       map[hooking.Hookable]*ProgressBar

	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		byDomain:   make(map[hooking.Hookable]*componentState),
		replayBars: make(map[hooking.Hookable]*ProgressBar),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor in the default browser.
func (m *Monitor) WithBrowser(open bool) *Monitor {
	m.openBrowser = open
	return m
}

// RegisterSimulator starts observing a cache simulator.
func (m *Monitor) RegisterSimulator(s *cache.Simulator) {
	m.lock.Lock()
	defer m.lock.Unlock()

	state := &componentState{
		Name:     s.Name(),
		Geometry: s.Geometry(),
		Stats:    s.Stats(),
		Clock:    s.Clock(),
	}

	m.components = append(m.components, state)
	m.byDomain[s] = state

	s.AcceptHook(m)
}

// RegisterReplayer shows the progress of every replay run by r.
func (m *Monitor) RegisterReplayer(r *trace.Replayer) {
	r.AcceptHook(m)
}

// Func updates the monitor's snapshot from the simulation.
func (m *Monitor) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case cache.HookPosAccess:
		m.updateComponent(ctx.Domain, ctx.Item.(cache.AccessInfo))
	case cache.HookPosReset:
		m.resetComponent(ctx.Domain)
	case trace.HookPosReplayStart:
		m.startReplay(ctx.Domain, ctx.Item.(trace.ReplayStart))
	case trace.HookPosRecord:
		m.progressReplay(ctx.Domain, ctx.Item.(trace.Replayed))
	case trace.HookPosReplayEnd:
		m.endReplay(ctx.Domain)
	}
}

func (m *Monitor) updateComponent(domain hooking.Hookable, info cache.AccessInfo) {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.byDomain[domain]
	if !ok {
		return
	}

	state.Stats.Count(info.Outcome)
	state.Clock = info.Clock
	state.LastAccess = info
}

func (m *Monitor) resetComponent(domain hooking.Hookable) {
	m.lock.Lock()
	defer m.lock.Unlock()

	state, ok := m.byDomain[domain]
	if !ok {
		return
	}

	state.Stats = cache.Stats{}
	state.Clock = 0
	state.LastAccess = cache.AccessInfo{}
}

func (m *Monitor) startReplay(domain hooking.Hookable, start trace.ReplayStart) {
	name := start.Source
	if name == "" {
		name = "trace"
	}

	total := uint64(0)
	if start.Size > 0 {
		total = uint64(start.Size)
	}

	bar := m.CreateProgressBar(name, total)

	m.progressBarsLock.Lock()
	m.replayBars[domain] = bar
	m.progressBarsLock.Unlock()
}

func (m *Monitor) progressReplay(domain hooking.Hookable, replayed trace.Replayed) {
	m.progressBarsLock.Lock()
	bar, ok := m.replayBars[domain]
	m.progressBarsLock.Unlock()

	if !ok {
		return
	}

	bar.SetFinished(uint64(replayed.Offset))
}

func (m *Monitor) endReplay(domain hooking.Hookable) {
	m.progressBarsLock.Lock()
	bar, ok := m.replayBars[domain]
	delete(m.replayBars, domain)
	m.progressBarsLock.Unlock()

	if ok {
		m.CompleteProgressBar(bar)
	}
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_components", m.listComponents)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/stats", m.listStats)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/", m.index)

	return r
}

// StartServer starts the monitor as a web server. It returns once the port is
// bound; requests are served in the background.
func (m *Monitor) StartServer() error {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return err
	}

	m.listener = listener

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.URL())

	go func() {
		err := http.Serve(listener, m.router())
		if err != nil && !strings.Contains(err.Error(), "use of closed") {
			log.Panic(err)
		}
	}()

	if m.openBrowser {
		if err := browser.OpenURL(m.URL()); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %v\n", err)
		}
	}

	return nil
}

// URL returns the address of the running server, or "" before StartServer.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	return fmt.Sprintf("http://localhost:%d",
		m.listener.Addr().(*net.TCPAddr).Port)
}

// StopServer closes the listener.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	return m.listener.Close()
}

func (m *Monitor) index(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintln(w, "csim monitor")
	for _, route := range []string{
		"/api/list_components",
		"/api/component/{name}",
		"/api/field/{json}",
		"/api/stats",
		"/api/progress",
		"/api/resource",
		"/api/profile",
	} {
		fmt.Fprintln(w, route)
	}
}

func (m *Monitor) snapshot(name string) (componentState, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()

	for _, c := range m.components {
		if c.Name == name {
			return *c, true
		}
	}

	return componentState{}, false
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	names := make([]string, 0, len(m.components))
	for _, c := range m.components {
		names = append(names, c.Name)
	}
	m.lock.Unlock()

	writeJSON(w, names)
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	m.lock.Lock()
	stats := make(map[string]cache.Stats, len(m.components))
	for _, c := range m.components {
		stats[c.Name] = c.Stats
	}
	m.lock.Unlock()

	writeJSON(w, stats)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	state, ok := m.snapshot(name)
	if !ok {
		notFound(w, "Component not found")
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&state)
	serializer.SetMaxDepth(2)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	state, ok := m.snapshot(req.CompName)
	if !ok {
		notFound(w, "Component not found")
		return
	}

	elem, err := m.walkFields(&state, req.FieldName)
	if err != nil || !elem.IsValid() {
		notFound(w, "Field not found")
		return
	}

	writeJSON(w, elem.Interface())
}

type fieldFormatError struct {
}

func (e fieldFormatError) Error() string {
	return "fieldFormatError"
}

func (m *Monitor) walkFields(
	comp any,
	fields string,
) (reflect.Value, error) {
	elem := reflect.ValueOf(comp)

	fieldNames := strings.Split(fields, ".")

	for len(fieldNames) > 0 {
		switch elem.Kind() {
		case reflect.Ptr, reflect.Interface:
			elem = elem.Elem()
		case reflect.Struct:
			elem = elem.FieldByName(fieldNames[0])
			fieldNames = fieldNames[1:]
		case reflect.Slice:
			index, err := strconv.Atoi(fieldNames[0])
			if err != nil || index < 0 || index >= elem.Len() {
				return elem, fieldFormatError{}
			}

			elem = elem.Index(index)
			fieldNames = fieldNames[1:]
		default:
			return elem, fieldFormatError{}
		}
	}

	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}

	return elem, nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarView, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].StartTime.Before(bars[j].StartTime)
	})

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func notFound(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte(msg))
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
