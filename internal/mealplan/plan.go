package mealplan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nutriplan/internal/logging"
	"nutriplan/internal/nutrition"
)

var (
	// ErrIncompleteCustomFood is returned when a custom entry lacks a name
	// or a calorie value.
	ErrIncompleteCustomFood = errors.New("custom food needs at least a name and calories")
	// ErrNoFood is returned by Attach for an item without a name.
	ErrNoFood = errors.New("food item has no name")
)

// Persister is the storage the plan writes through to. Reads return nil when
// nothing is stored; failures are the implementation's to log.
type Persister interface {
	SaveMeals(ctx context.Context, meals []Meal) error
	GetMeals(ctx context.Context) []Meal
	SavePersonalInfo(ctx context.Context, info nutrition.PersonalInfo) error
	GetPersonalInfo(ctx context.Context) *nutrition.PersonalInfo
	ClearPersonalInfo(ctx context.Context) error
}

// Option configures a Plan.
type Option func(*Plan)

// WithIDFunc overrides how custom food ids are generated.
func WithIDFunc(f func() string) Option {
	return func(p *Plan) { p.newID = f }
}

// WithWriteTimeout bounds each background meals write.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Plan) { p.writeTimeout = d }
}

// Plan is the application state: four meal slots plus an optional profile.
// It is safe for concurrent use.
//
// Meal mutations update memory synchronously and then hand a snapshot to a
// single background writer. Writes are whole-record overwrites, so when the
// writer falls behind only the newest snapshot is written. Failed writes are
// logged and not retried.
type Plan struct {
	mu    sync.RWMutex
	meals []Meal
	info  *nutrition.PersonalInfo

	persister    Persister
	newID        func() string
	writeTimeout time.Duration

	pending  []Meal // newest unsaved snapshot, nil when clean
	notify   chan struct{}
	flushReq chan chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	closed   bool
}

// NewPlan creates a plan with the four empty default slots and starts its
// background writer. Call Load to restore persisted state and Close to stop
// the writer.
func NewPlan(persister Persister, opts ...Option) *Plan {
	p := &Plan{
		meals:        DefaultMeals(),
		persister:    persister,
		newID:        func() string { return uuid.NewString() },
		writeTimeout: 5 * time.Second,
		notify:       make(chan struct{}, 1),
		flushReq:     make(chan chan struct{}),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	go p.run()
	return p
}

// Load replaces in-memory state with what the persister holds. Missing
// records leave the defaults in place.
func (p *Plan) Load(ctx context.Context) {
	if p.persister == nil {
		return
	}
	info := p.persister.GetPersonalInfo(ctx)
	meals := p.persister.GetMeals(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	if info != nil {
		p.info = info
	}
	if meals != nil {
		p.meals = normalizeMeals(meals)
	}
	logging.PlanDebug("Loaded plan (profile=%v, filled=%d)", p.info != nil, countFilled(p.meals))
}

func countFilled(meals []Meal) int {
	n := 0
	for _, m := range meals {
		if m.Food != nil {
			n++
		}
	}
	return n
}

// =============================================================================
// MEAL OPERATIONS
// =============================================================================

// Attach puts food into slot, replacing whatever was there.
func (p *Plan) Attach(slot Slot, food FoodItem) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	if strings.TrimSpace(food.Name) == "" {
		return ErrNoFood
	}

	p.mu.Lock()
	for i := range p.meals {
		if p.meals[i].ID == slot {
			f := food
			p.meals[i].Food = &f
			p.meals[i].HasFood = true
		}
	}
	p.scheduleSaveLocked()
	p.mu.Unlock()

	logging.Plan("Attached %q to %s", food.Name, slot)
	return nil
}

// Detach empties slot. Detaching an empty slot is a no-op that still
// persists.
func (p *Plan) Detach(slot Slot) error {
	if !slot.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}

	p.mu.Lock()
	for i := range p.meals {
		if p.meals[i].ID == slot {
			p.meals[i].Food = nil
			p.meals[i].HasFood = false
		}
	}
	p.scheduleSaveLocked()
	p.mu.Unlock()

	logging.Plan("Cleared %s", slot)
	return nil
}

// AddCustom builds a custom FoodItem from form text and attaches it.
// Numeric fields use ParseQuantity rules, so junk becomes 0 rather than an
// error. Name and calories must be non-empty.
func (p *Plan) AddCustom(slot Slot, name, calories, protein, carbs, fat string) (FoodItem, error) {
	if !slot.Valid() {
		return FoodItem{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(calories) == "" {
		return FoodItem{}, ErrIncompleteCustomFood
	}

	food := FoodItem{
		ID:       "custom-" + p.newID(),
		Name:     name,
		Calories: nutrition.ParseQuantity(calories),
		Protein:  nutrition.ParseQuantity(protein),
		Carbs:    nutrition.ParseQuantity(carbs),
		Fat:      nutrition.ParseQuantity(fat),
		Category: "custom",
	}
	if err := p.Attach(slot, food); err != nil {
		return FoodItem{}, err
	}
	return food, nil
}

// ClearAll empties every slot.
func (p *Plan) ClearAll() {
	p.mu.Lock()
	for i := range p.meals {
		p.meals[i].Food = nil
		p.meals[i].HasFood = false
	}
	p.scheduleSaveLocked()
	p.mu.Unlock()

	logging.Plan("Cleared all meals")
}

// Meals returns a copy of the four slots in display order.
func (p *Plan) Meals() []Meal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneMeals(p.meals)
}

// Meal returns a copy of one slot.
func (p *Plan) Meal(slot Slot) (Meal, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, m := range p.meals {
		if m.ID == slot {
			return cloneMeals([]Meal{m})[0], nil
		}
	}
	return Meal{}, fmt.Errorf("%w: %q", ErrUnknownSlot, slot)
}

// Totals sums every filled slot. Empty plan totals are all zero.
func (p *Plan) Totals() nutrition.NutritionalData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Totals(p.meals)
}

// Targets returns the profile's daily targets, or DefaultTargets without a
// profile.
func (p *Plan) Targets() nutrition.NutritionalData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.info == nil {
		return nutrition.DefaultTargets
	}
	return nutrition.TargetNutrition(*p.info)
}

// Remaining is Targets minus Totals. Fields go negative once exceeded.
func (p *Plan) Remaining() nutrition.NutritionalData {
	p.mu.RLock()
	defer p.mu.RUnlock()
	target := nutrition.DefaultTargets
	if p.info != nil {
		target = nutrition.TargetNutrition(*p.info)
	}
	return target.Sub(Totals(p.meals))
}

// Progress returns clamped per-macro progress toward Targets.
func (p *Plan) Progress() nutrition.ProgressReport {
	return nutrition.ProgressOf(p.Totals(), p.Targets())
}

// =============================================================================
// PROFILE OPERATIONS
// =============================================================================

// SavePersonalInfo validates info, computes its calorie target, persists it
// and makes it current. The stored profile is returned.
func (p *Plan) SavePersonalInfo(ctx context.Context, info nutrition.PersonalInfo) (nutrition.PersonalInfo, error) {
	done, err := info.Complete()
	if err != nil {
		return nutrition.PersonalInfo{}, err
	}
	if p.persister != nil {
		if err := p.persister.SavePersonalInfo(ctx, done); err != nil {
			return nutrition.PersonalInfo{}, fmt.Errorf("save personal info: %w", err)
		}
	}

	p.mu.Lock()
	p.info = &done
	p.mu.Unlock()

	logging.Plan("Profile saved (target %d kcal)", done.TargetCalories)
	return done, nil
}

// LoadPersonalInfo re-reads the profile from storage. It returns nil when none
// is stored, and the in-memory profile is kept in that case.
func (p *Plan) LoadPersonalInfo(ctx context.Context) *nutrition.PersonalInfo {
	if p.persister == nil {
		return p.PersonalInfo()
	}
	info := p.persister.GetPersonalInfo(ctx)
	if info == nil {
		return nil
	}
	p.mu.Lock()
	p.info = info
	p.mu.Unlock()
	cp := *info
	return &cp
}

// ClearPersonalInfo removes the profile. Targets revert to the defaults.
func (p *Plan) ClearPersonalInfo(ctx context.Context) error {
	if p.persister != nil {
		if err := p.persister.ClearPersonalInfo(ctx); err != nil {
			return fmt.Errorf("clear personal info: %w", err)
		}
	}
	p.mu.Lock()
	p.info = nil
	p.mu.Unlock()
	logging.Plan("Profile cleared")
	return nil
}

// PersonalInfo returns a copy of the current profile, or nil.
func (p *Plan) PersonalInfo() *nutrition.PersonalInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.info == nil {
		return nil
	}
	cp := *p.info
	return &cp
}

// HasCompletedSetup reports whether a profile is stored.
func (p *Plan) HasCompletedSetup(ctx context.Context) bool {
	if p.persister == nil {
		return p.PersonalInfo() != nil
	}
	return p.persister.GetPersonalInfo(ctx) != nil
}

// =============================================================================
// BACKGROUND PERSISTENCE
// =============================================================================

// scheduleSaveLocked records the current meals as the pending snapshot and
// wakes the writer. Caller holds p.mu.
func (p *Plan) scheduleSaveLocked() {
	if p.persister == nil || p.closed {
		return
	}
	p.pending = cloneMeals(p.meals)
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *Plan) run() {
	defer close(p.done)
	for {
		select {
		case <-p.notify:
			p.writePending()
		case reply := <-p.flushReq:
			p.writePending()
			close(reply)
		case <-p.stop:
			p.writePending()
			return
		}
	}
}

func (p *Plan) writePending() {
	p.mu.Lock()
	snap := p.pending
	p.pending = nil
	p.mu.Unlock()
	if snap == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()
	timer := logging.StartTimer(logging.CategoryPlan, "save meals")
	if err := p.persister.SaveMeals(ctx, snap); err != nil {
		logging.Get(logging.CategoryPlan).Error("Error saving meals to storage: %v", err)
		return
	}
	timer.Stop()
}

// Flush blocks until every mutation made before the call has been handed to
// the persister.
func (p *Plan) Flush(ctx context.Context) error {
	reply := make(chan struct{})
	select {
	case p.flushReq <- reply:
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes any pending snapshot and stops the writer. Mutations after
// Close still update memory but are no longer persisted.
func (p *Plan) Close(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.stop)
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
