package client

import (
	"context"
	"sync"

	"equiploan-backend/internal/inventory/employees"
	"equiploan-backend/internal/inventory/equipment"
	"equiploan-backend/internal/inventory/loans"
)

// Cache holds a full snapshot of the three collections. It is owned by the
// caller (no package-level state) and is only ever rebuilt wholesale: every
// mutation helper re-fetches all three lists instead of patching in place, so
// between a mutation and the refresh completing, readers see the previous
// snapshot.
type Cache struct {
	api *Client

	mu        sync.RWMutex
	employees []employees.Employee
	equipment []equipment.Equipment
	loans     []loans.LoanResponse
}

func NewCache(api *Client) *Cache {
	return &Cache{api: api}
}

// Refresh re-fetches every collection and swaps the snapshot atomically.
func (c *Cache) Refresh(ctx context.Context) error {
	emps, err := c.api.ListEmployees(ctx)
	if err != nil {
		return err
	}
	eqs, err := c.api.ListEquipment(ctx)
	if err != nil {
		return err
	}
	ls, err := c.api.ListLoans(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.employees = emps
	c.equipment = eqs
	c.loans = ls
	c.mu.Unlock()
	return nil
}

func (c *Cache) Employees() []employees.Employee {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]employees.Employee, len(c.employees))
	copy(out, c.employees)
	return out
}

func (c *Cache) Equipment() []equipment.Equipment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]equipment.Equipment, len(c.equipment))
	copy(out, c.equipment)
	return out
}

func (c *Cache) Loans() []loans.LoanResponse {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]loans.LoanResponse, len(c.loans))
	copy(out, c.loans)
	return out
}

// AvailableEquipment filters the snapshot for units a new loan may claim.
func (c *Cache) AvailableEquipment() []equipment.Equipment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]equipment.Equipment, 0)
	for _, e := range c.equipment {
		if e.Status == equipment.StatusAvailable {
			out = append(out, e)
		}
	}
	return out
}

func (c *Cache) UpsertEmployee(ctx context.Context, in employees.UpsertEmployeeRequest) error {
	if err := c.api.UpsertEmployee(ctx, in); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Cache) DeleteEmployee(ctx context.Context, id string) error {
	if err := c.api.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Cache) UpsertEquipment(ctx context.Context, in equipment.UpsertEquipmentRequest) error {
	if err := c.api.UpsertEquipment(ctx, in); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Cache) DeleteEquipment(ctx context.Context, id string) error {
	if err := c.api.DeleteEquipment(ctx, id); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Cache) CreateLoan(ctx context.Context, in loans.CreateLoanRequest) error {
	if err := c.api.CreateLoan(ctx, in); err != nil {
		return err
	}
	return c.Refresh(ctx)
}

func (c *Cache) ReturnLoan(ctx context.Context, in loans.ReturnLoanRequest) error {
	if err := c.api.ReturnLoan(ctx, in); err != nil {
		return err
	}
	return c.Refresh(ctx)
}
