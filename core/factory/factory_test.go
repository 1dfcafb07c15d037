package factory

import (
	"strings"
	"testing"
	"time"
)

type sink struct {
	Addr    string
	Timeout time.Duration
}

type sinkConf struct {
	Addr    string        `json:"addr"`
	Timeout time.Duration `json:"timeout"`
	Port    int           `json:"port"`
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sink]()
	if err := reg.Register("influx", func(conf map[string]any) (*sink, error) {
		var c sinkConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sink{Addr: c.Addr, Timeout: c.Timeout}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "influx", Conf: map[string]any{"addr": "http://db", "timeout": "3s"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.Addr != "http://db" || inst.Timeout != 3*time.Second {
		t.Fatalf("unexpected sink %+v", inst)
	}
}

func TestDecodeWeakTypes(t *testing.T) {
	var c sinkConf
	if err := Decode(map[string]any{"port": "9090"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Port != 9090 {
		t.Fatalf("expected 9090 got %d", c.Port)
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("nop", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("nop", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("nil", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	_, err := reg.Create(ModuleConfig{Type: "prometheus"})
	if err == nil {
		t.Fatal("expected unknown type error")
	}
	if !strings.Contains(err.Error(), "known: nop") {
		t.Fatalf("error should list known types: %v", err)
	}
}
