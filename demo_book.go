package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mbragd/finai/internal/fintools"
)

// memoryBook is the demo shell's stand-in for the real record keeping
// backend. Nothing survives a restart.
type memoryBook struct {
	mu      sync.Mutex
	nextID  int
	flows   []fintools.Flow
	budgets map[string]float64
}

func newMemoryBook() *memoryBook {
	return &memoryBook{nextID: 1, budgets: make(map[string]float64)}
}

func (m *memoryBook) CreateFlow(ctx context.Context, flow fintools.Flow) (fintools.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow.ID = fmt.Sprintf("flow-%v", m.nextID)
	m.nextID++
	if flow.Date == "" {
		flow.Date = time.Now().Format("2006-01-02")
	}
	m.flows = append(m.flows, flow)
	return flow, nil
}

func (m *memoryBook) ListFlows(ctx context.Context, month string) ([]fintools.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []fintools.Flow
	for _, flow := range m.flows {
		if strings.HasPrefix(flow.Date, month) {
			out = append(out, flow)
		}
	}
	return out, nil
}

func (m *memoryBook) DeleteFlow(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, flow := range m.flows {
		if flow.ID == id {
			m.flows = append(m.flows[:i], m.flows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no flow with id: '%v'", id)
}

func (m *memoryBook) SetBudget(ctx context.Context, month string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[month] = amount
	return nil
}

func (m *memoryBook) MonthSummary(ctx context.Context, month string) (fintools.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := fintools.Summary{Month: month, Budget: m.budgets[month]}
	for _, flow := range m.flows {
		if !strings.HasPrefix(flow.Date, month) {
			continue
		}
		if flow.Type == "income" {
			summary.Income += flow.Money
		} else {
			summary.Expense += flow.Money
		}
	}
	return summary, nil
}
