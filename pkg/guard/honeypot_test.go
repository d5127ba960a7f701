package guard

import "testing"

func TestHoneypotNoRedirect(t *testing.T) {
	e := NewHoneypotEngine()

	d := e.Evaluate(false, 1, 0, 0.5)
	if d.ShouldRedirect {
		t.Error("single low-risk attempt must not redirect")
	}
	if d.TargetLLM != "primary" {
		t.Errorf("TargetLLM = %q, want primary", d.TargetLLM)
	}
	if d.TarpitDelayMS != 0 {
		t.Errorf("TarpitDelayMS = %d, want 0", d.TarpitDelayMS)
	}
	if d.DecoyPersona != "" {
		t.Errorf("DecoyPersona = %q, want empty", d.DecoyPersona)
	}
}

func TestHoneypotPersistentAttacker(t *testing.T) {
	e := NewHoneypotEngine()

	d := e.Evaluate(true, 2, 3, 0.4)
	if !d.ShouldRedirect {
		t.Fatal("high-risk user with repeated attempts must redirect")
	}
	if d.TargetLLM != "decoy-phi3" {
		t.Errorf("TargetLLM = %q, want decoy-phi3", d.TargetLLM)
	}
	if d.Reason != "Persistent attacker: 2 attempts with 3 vectors" {
		t.Errorf("Reason = %q", d.Reason)
	}
	if d.DecoyPersona != "confused_model" {
		t.Errorf("DecoyPersona = %q, want confused_model (count mod rotation)", d.DecoyPersona)
	}
	if d.TarpitDelayMS != 500 {
		t.Errorf("TarpitDelayMS = %d, want 500 for intermediate", d.TarpitDelayMS)
	}
}

func TestHoneypotCumulativeRiskOverride(t *testing.T) {
	e := NewHoneypotEngine()

	d := e.Evaluate(true, 4, 2, 2.5)
	if !d.ShouldRedirect {
		t.Fatal("cumulative risk past 2.0 must redirect")
	}
	if d.Reason != "Cumulative risk threshold exceeded: 2.50" {
		t.Errorf("Reason = %q", d.Reason)
	}
	if d.DecoyPersona != "security_researcher_trap" {
		t.Errorf("DecoyPersona = %q, want security_researcher_trap", d.DecoyPersona)
	}
}

func TestHoneypotPersistenceThreshold(t *testing.T) {
	e := NewHoneypotEngine()

	// Five attempts redirect even without the high-risk flag.
	d := e.Evaluate(false, 5, 1, 0.3)
	if !d.ShouldRedirect {
		t.Fatal("five attempts must redirect regardless of risk flag")
	}
	if d.Reason != "Attack persistence threshold: 5 attempts" {
		t.Errorf("Reason = %q", d.Reason)
	}
	if d.DecoyPersona != "naive_assistant" {
		t.Errorf("DecoyPersona = %q, want naive_assistant", d.DecoyPersona)
	}
	if d.TarpitDelayMS != 1000 {
		t.Errorf("TarpitDelayMS = %d, want 1000 for advanced", d.TarpitDelayMS)
	}
	if d.AttackProfile.PersistenceScore != 0.35 {
		t.Errorf("PersistenceScore = %v, want 0.35", d.AttackProfile.PersistenceScore)
	}
	if d.AttackProfile.Sophistication != "advanced" {
		t.Errorf("Sophistication = %q, want advanced", d.AttackProfile.Sophistication)
	}
}

func TestHoneypotSophisticationBuckets(t *testing.T) {
	tests := []struct {
		count     int
		wantLevel string
		wantDelay int
	}{
		{0, "novice", 0},
		{1, "novice", 0},
		{2, "intermediate", 500},
		{4, "intermediate", 500},
		{5, "advanced", 1000},
		{9, "advanced", 1000},
		{10, "persistent_threat", 2000},
		{99, "persistent_threat", 2000},
		{150, "persistent_threat", 2000},
	}

	for _, tt := range tests {
		level, delay, _ := sophistication(tt.count, 1)
		if level != tt.wantLevel {
			t.Errorf("sophistication(%d) level = %q, want %q", tt.count, level, tt.wantLevel)
		}
		if delay != tt.wantDelay {
			t.Errorf("sophistication(%d) delay = %d, want %d", tt.count, delay, tt.wantDelay)
		}
	}
}

func TestHoneypotProfileEchoesInputs(t *testing.T) {
	e := NewHoneypotEngine()

	d := e.Evaluate(true, 7, 4, 1.0)
	if d.AttackProfile.AttackCount != 7 {
		t.Errorf("AttackCount = %d, want 7", d.AttackProfile.AttackCount)
	}
	if d.AttackProfile.UniqueVectors != 4 {
		t.Errorf("UniqueVectors = %d, want 4", d.AttackProfile.UniqueVectors)
	}
	// (0.7 + 0.8) / 2
	if d.AttackProfile.PersistenceScore != 0.75 {
		t.Errorf("PersistenceScore = %v, want 0.75", d.AttackProfile.PersistenceScore)
	}
}
