package deps

import "testing"

func TestCheckFindsShell(t *testing.T) {
	status := Requirement{Name: "shell", Command: "sh", Description: "test"}.Check()
	if !status.Available {
		t.Fatalf("sh should be available: %+v", status)
	}
}

func TestCheckMissingBinary(t *testing.T) {
	status := Requirement{Name: "missing", Command: "definitely-not-a-real-binary"}.Check()
	if status.Available {
		t.Fatal("expected unavailable")
	}
	if status.Detail == "" {
		t.Fatal("expected detail for missing binary")
	}
}

func TestCheckUnconfigured(t *testing.T) {
	status := Requirement{Name: "empty", Command: "  "}.Check()
	if status.Available || status.Detail != "command not configured" {
		t.Fatalf("status = %+v", status)
	}
}

func TestMediaToolsBindsConfiguredCommands(t *testing.T) {
	tools := MediaTools("yt-dlp-custom", "ffmpeg", "ffprobe")
	if len(tools) != 3 {
		t.Fatalf("tools = %d", len(tools))
	}
	if tools[0].Command != "yt-dlp-custom" || tools[0].Optional {
		t.Fatalf("yt-dlp requirement = %+v", tools[0])
	}
	if !tools[2].Optional {
		t.Fatal("ffprobe should be optional")
	}
}

func TestCheckBinariesPreservesOrder(t *testing.T) {
	statuses := CheckBinaries(MediaTools("sh", "sh", ""))
	if len(statuses) != 3 {
		t.Fatalf("statuses = %d", len(statuses))
	}
	if !statuses[0].Available || !statuses[1].Available {
		t.Fatalf("statuses = %+v", statuses)
	}
	if statuses[2].Available || statuses[2].Detail != "command not configured" {
		t.Fatalf("ffprobe status = %+v", statuses[2])
	}
}
