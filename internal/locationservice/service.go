// Package locationservice implements the Location Service (spec §4.2):
// the per-site component owning a set of fingerprint devices, serving
// device/user/attendance/summary data derived from them.
package locationservice

import (
	"context"
	"sort"
	"time"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/internal/domain/policy"
	"github.com/biometricfleet/attendance/internal/infrastructure/device"
	"github.com/biometricfleet/attendance/internal/pkg/util"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
	"github.com/biometricfleet/attendance/pkg/interfaces"
	"github.com/biometricfleet/attendance/pkg/logger"
)

// Service is the Location Service's domain logic, independent of the
// HTTP transport (spec §4.2).
type Service struct {
	pool   *device.Pool
	policy policy.WorkPolicy
	log    *logger.Logger
}

// New builds a Service over an already-populated device Pool.
func New(pool *device.Pool, pol policy.WorkPolicy, log *logger.Logger) *Service {
	return &Service{pool: pool, policy: pol, log: log}
}

// ListDevices reports every configured device with its last-known
// reachability (spec §4.2 GET /devices).
func (s *Service) ListDevices(deviceDetails map[string]entities.Device) []entities.PublicDevice {
	names := s.pool.Names()
	sort.Strings(names)

	out := make([]entities.PublicDevice, 0, len(names))
	for _, name := range names {
		reachable := s.pool.State(name) == entities.ReachReachable
		d := deviceDetails[name]
		d.Name = name
		out = append(out, d.Public(reachable))
	}
	return out
}

// GetUsers fetches the enrolled user list from one device, updating
// its reachability state from the outcome.
func (s *Service) GetUsers(ctx context.Context, deviceName string) ([]entities.User, error) {
	conn, ok := s.pool.Get(deviceName)
	if !ok {
		return nil, apierrors.NewNotFound("device not found")
	}

	users, err := conn.GetUsers(ctx)
	s.recordOutcome(deviceName, err)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UsersAcrossDevices implements spec §4.2 GET /users when the `device`
// query parameter is absent: union every configured device's user
// list, de-duplicated on user_id with device_names merged (spec §3:
// "the same physical employee may appear on multiple devices"). A
// single unreachable device is folded into the failures list rather
// than failing the whole request (spec §4.2 "Failure semantics").
func (s *Service) UsersAcrossDevices(ctx context.Context) ([]entities.User, []entities.Failure) {
	names := s.pool.Names()
	sort.Strings(names)

	merged := make(map[string]*entities.User)
	var order []string
	var failures []entities.Failure

	for _, name := range names {
		users, err := s.GetUsers(ctx, name)
		if err != nil {
			failures = append(failures, entities.Failure{LocationID: name, Reason: err.Error()})
			continue
		}
		for _, u := range users {
			existing, ok := merged[u.UserID]
			if !ok {
				cp := u
				cp.MergeDeviceNames(name)
				merged[u.UserID] = &cp
				order = append(order, u.UserID)
				continue
			}
			existing.MergeDeviceNames(u.DeviceNames...)
			existing.MergeDeviceNames(name)
			s.log.Debug("merged duplicate enrollment across devices", "user_id_hash", util.Redact(u.UserID), "device", name)
		}
	}

	sort.Strings(order)
	out := make([]entities.User, 0, len(order))
	for _, uid := range order {
		out = append(out, *merged[uid])
	}
	return out, failures
}

// GetAttendance fetches raw events from one device and runs the
// enrichment algorithm against them (spec §4.2).
func (s *Service) GetAttendance(ctx context.Context, deviceName string, start, end time.Time, extraHolidays []string) ([]entities.AttendanceRecord, error) {
	conn, ok := s.pool.Get(deviceName)
	if !ok {
		return nil, apierrors.NewNotFound("device not found")
	}

	events, err := conn.GetAttendance(ctx)
	s.recordOutcome(deviceName, err)
	if err != nil {
		return nil, err
	}

	users, err := conn.GetUsers(ctx)
	s.recordOutcome(deviceName, err)
	if err != nil {
		return nil, err
	}

	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.UserID] = u.Name
	}

	records := policy.Enrich(events, userNames, start, end, extraHolidays, s.policy)
	for i := range records {
		records[i].LocationID = ""
	}
	return records, nil
}

// AttendanceAcrossDevices implements spec §4.2 GET /attendance when
// `device` is absent: enrich every configured device's events and
// concatenate, sorted by the (date, user_id) natural key. A device
// that fails contributes a Failure entry instead of aborting the
// whole request.
func (s *Service) AttendanceAcrossDevices(ctx context.Context, start, end time.Time, extraHolidays []string) ([]entities.AttendanceRecord, []entities.Failure) {
	names := s.pool.Names()
	sort.Strings(names)

	var all []entities.AttendanceRecord
	var failures []entities.Failure
	for _, name := range names {
		records, err := s.GetAttendance(ctx, name, start, end, extraHolidays)
		if err != nil {
			failures = append(failures, entities.Failure{LocationID: name, Reason: err.Error()})
			continue
		}
		all = append(all, records...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].NaturalKey() < all[j].NaturalKey() })
	return all, failures
}

// GetSummary fetches and enriches attendance, then reduces it to the
// per-day DailySummary view (spec §4.2, §4.3).
func (s *Service) GetSummary(ctx context.Context, deviceName string, start, end time.Time, extraHolidays []string) ([]entities.DailySummary, error) {
	records, err := s.GetAttendance(ctx, deviceName, start, end, extraHolidays)
	if err != nil {
		return nil, err
	}
	return policy.Summarize(records, "", deviceName), nil
}

// SummaryAcrossDevices implements spec §4.2 GET /attendance/summary
// when `device` is absent: enrich every device and merge the
// resulting summaries (spec §4.3 rule 5: recompute attendance_rate
// from summed counts, never by averaging ratios).
func (s *Service) SummaryAcrossDevices(ctx context.Context, start, end time.Time, extraHolidays []string) ([]entities.DailySummary, []entities.Failure) {
	names := s.pool.Names()
	sort.Strings(names)

	var perDevice [][]entities.DailySummary
	var failures []entities.Failure
	for _, name := range names {
		records, err := s.GetAttendance(ctx, name, start, end, extraHolidays)
		if err != nil {
			failures = append(failures, entities.Failure{LocationID: name, Reason: err.Error()})
			continue
		}
		perDevice = append(perDevice, policy.Summarize(records, "", name))
	}
	return policy.MergeSummaries(perDevice), failures
}

// DeviceInfo returns one device's self-reported identity, refreshing
// reachability state.
func (s *Service) DeviceInfo(ctx context.Context, deviceName string) (interfaces.DeviceInfo, error) {
	conn, ok := s.pool.Get(deviceName)
	if !ok {
		return interfaces.DeviceInfo{}, apierrors.NewNotFound("device not found")
	}
	info, err := conn.GetDeviceInfo(ctx)
	s.recordOutcome(deviceName, err)
	if err != nil {
		return interfaces.DeviceInfo{}, err
	}
	return info, nil
}

func (s *Service) recordOutcome(deviceName string, err error) {
	if err != nil {
		s.pool.SetState(deviceName, entities.ReachUnreachable)
		return
	}
	s.pool.SetState(deviceName, entities.ReachReachable)
}
