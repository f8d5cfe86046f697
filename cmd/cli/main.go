package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Small operator CLI for the tablewatch status API.
//
//	tablewatch-cli            show status
//	tablewatch-cli run        trigger one pass now
//	tablewatch-cli start      start the monitor loop
//	tablewatch-cli stop       stop the monitor loop

type status struct {
	Running         bool                 `json:"running"`
	Interval        string               `json:"interval"`
	CooldownWindow  string               `json:"cooldown_window"`
	DescriptorCount int                  `json:"descriptor_count"`
	Descriptors     []descriptor         `json:"descriptors"`
	CooldownState   map[string]time.Time `json:"cooldown_state"`
}

type descriptor struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Table string `json:"table"`
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	var resp *http.Response
	var err error
	switch arg(1) {
	case "", "status":
		resp, err = http.Get(api + "/api/status")
	case "run":
		resp, err = http.Post(api+"/api/checks/run", "application/json", nil)
	case "start":
		resp, err = http.Post(api+"/api/monitor/start", "application/json", nil)
	case "stop":
		resp, err = http.Post(api+"/api/monitor/stop", "application/json", nil)
	default:
		fmt.Fprintln(os.Stderr, "usage: tablewatch-cli [status|run|start|stop]")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var st status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Fprintln(os.Stderr, "Bad response:", err)
		os.Exit(1)
	}

	fmt.Printf("running=%v interval=%s cooldown=%s checks=%d\n",
		st.Running, st.Interval, st.CooldownWindow, st.DescriptorCount)
	for _, d := range st.Descriptors {
		line := fmt.Sprintf("  - %s: %s table %q", d.Name, d.Kind, d.Table)
		if at, ok := st.CooldownState[d.Name]; ok {
			line += " (last alert " + at.Format(time.RFC3339) + ")"
		}
		fmt.Println(line)
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}
