package gateway

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/internal/domain/policy"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
	"github.com/biometricfleet/attendance/pkg/wrappers"
)

// Service implements the Gateway's cross-site operations (spec §4.1):
// fan out to every Location, merge deterministically, and surface
// partial-result metadata when some Locations fail.
type Service struct {
	registry *Registry
	policy   policy.WorkPolicy
}

// New builds a Service over a populated Registry.
func New(registry *Registry, pol policy.WorkPolicy) *Service {
	return &Service{registry: registry, policy: pol}
}

// locationHealthStatus decodes a Location's GET /health response far
// enough to read its liveness status, ignoring the device detail the
// Location itself returns alongside it.
type locationHealthStatus struct {
	Status string `json:"status"`
}

// LocationHealth fans out GET /health to every registered Location
// (spec §4.3: "/health aggregates LS healths via fan-out"), returning
// each reachable Location's reported status alongside the usual
// per-Location failure list.
func (s *Service) LocationHealth(ctx context.Context) (map[string]string, []entities.Failure) {
	clients := s.registry.All()

	type perLocationHealth struct {
		locationID string
		status     string
	}

	results, failures := FanOut(ctx, clients, func(ctx context.Context, c *wrappers.LocationClient) (perLocationHealth, error) {
		body, err := callLocation[locationHealthStatus](ctx, c, "GET", "/health")
		if err != nil {
			return perLocationHealth{}, err
		}
		return perLocationHealth{locationID: c.Location().ID, status: body.Status}, nil
	})

	out := make(map[string]string, len(results))
	for _, r := range results {
		out[r.locationID] = r.status
	}
	return out, failures
}

// Places lists every enabled Location's public view (spec §4.1 GET
// /places).
func (s *Service) Places() []entities.PublicLocation {
	clients := s.registry.All()
	out := make([]entities.PublicLocation, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.Location().Public())
	}
	return out
}

// locationDevices is one Location's device list, kept together so
// device-ownership lookups (DeviceOwner) don't need a second fan-out.
type locationDevices struct {
	locationID string
	devices    []entities.PublicDevice
}

func (s *Service) fanOutDevices(ctx context.Context) ([]locationDevices, []entities.Failure) {
	clients := s.registry.All()
	results, failures := FanOut(ctx, clients, func(ctx context.Context, c *wrappers.LocationClient) (locationDevices, error) {
		devices, err := callLocation[[]entities.PublicDevice](ctx, c, "GET", "/devices")
		if err != nil {
			return locationDevices{}, err
		}
		return locationDevices{locationID: c.Location().ID, devices: devices}, nil
	})
	return results, failures
}

// AllDevices fans out GET /devices to every Location and concatenates
// the results, sorted by device name.
func (s *Service) AllDevices(ctx context.Context) ([]entities.PublicDevice, []entities.Failure) {
	perLocation, failures := s.fanOutDevices(ctx)

	var all []entities.PublicDevice
	for _, ld := range perLocation {
		all = append(all, ld.devices...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, failures
}

// AllUsers fans out GET /users to every Location and merges by
// UserID, unioning device names and tracking which Locations know this
// user (spec §3: "the same physical employee may be enrolled on
// several devices/Locations").
func (s *Service) AllUsers(ctx context.Context) ([]entities.GatewayUser, []entities.Failure) {
	clients := s.registry.All()

	type perLocationUsers struct {
		locationID string
		users      []entities.User
	}

	results, failures := FanOut(ctx, clients, func(ctx context.Context, c *wrappers.LocationClient) (perLocationUsers, error) {
		users, err := callLocation[[]entities.User](ctx, c, "GET", "/users")
		if err != nil {
			return perLocationUsers{}, err
		}
		return perLocationUsers{locationID: c.Location().ID, users: users}, nil
	})

	merged := make(map[string]*entities.GatewayUser)
	var order []string
	for _, r := range results {
		for _, u := range r.users {
			gu, ok := merged[u.UserID]
			if !ok {
				gu = &entities.GatewayUser{User: u}
				merged[u.UserID] = gu
				order = append(order, u.UserID)
			}
			gu.MergeDeviceNames(u.DeviceNames...)
			gu.LocationIDs = appendUnique(gu.LocationIDs, r.locationID)
		}
	}

	sort.Strings(order)
	out := make([]entities.GatewayUser, 0, len(order))
	for _, uid := range order {
		out = append(out, *merged[uid])
	}
	return out, failures
}

// AllAttendance fans out enriched attendance across every Location and
// concatenates, sorted by the (date, user_id) natural key (spec §4.3
// rule 5).
func (s *Service) AllAttendance(ctx context.Context, start, end time.Time, holidays []string) ([]entities.AttendanceRecord, []entities.Failure) {
	path := attendancePath(start, end, holidays)
	clients := s.registry.All()

	type perLocationRecords struct {
		locationID string
		records    []entities.AttendanceRecord
	}

	results, failures := FanOut(ctx, clients, func(ctx context.Context, c *wrappers.LocationClient) (perLocationRecords, error) {
		records, err := callLocation[[]entities.AttendanceRecord](ctx, c, "GET", path)
		if err != nil {
			return perLocationRecords{}, err
		}
		return perLocationRecords{locationID: c.Location().ID, records: records}, nil
	})

	var all []entities.AttendanceRecord
	for _, r := range results {
		for _, rec := range r.records {
			rec.LocationID = r.locationID
			all = append(all, rec)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].NaturalKey() < all[j].NaturalKey() })
	return all, failures
}

// AllSummary fans out per-Location summaries and merges them via
// policy.MergeSummaries, recomputing attendance_rate from summed
// counts rather than averaging ratios (spec §4.3 rule 5).
func (s *Service) AllSummary(ctx context.Context, start, end time.Time, holidays []string) ([]entities.DailySummary, []entities.Failure) {
	path := summaryPath(start, end, holidays)

	results, failures := FanOut(ctx, s.registry.All(), func(ctx context.Context, c *wrappers.LocationClient) ([]entities.DailySummary, error) {
		return callLocation[[]entities.DailySummary](ctx, c, "GET", path)
	})

	return policy.MergeSummaries(results), failures
}

// Place proxies a single Location's view through by ID, used by GET
// /place/:id/* endpoints (spec §4.1).
func (s *Service) Place(ctx context.Context, locationID, subpath string) (interface{}, error) {
	c, ok := s.registry.Get(locationID)
	if !ok {
		return nil, apierrors.NewNotFound("unknown location")
	}
	return callLocation[interface{}](ctx, c, "GET", subpath)
}

// DeviceOwner resolves which single Location owns deviceName, erroring
// CONFLICT if more than one Location claims it (spec §4.1's
// /device/:name/* proxy ambiguity rule).
func (s *Service) DeviceOwner(ctx context.Context, deviceName string) (*wrappers.LocationClient, error) {
	perLocation, _ := s.fanOutDevices(ctx)

	var owners []string
	for _, ld := range perLocation {
		for _, d := range ld.devices {
			if d.Name == deviceName {
				owners = append(owners, ld.locationID)
				break
			}
		}
	}

	if len(owners) == 0 {
		return nil, apierrors.NewNotFound("device not found at any location")
	}
	if len(owners) > 1 {
		return nil, apierrors.NewConflict(fmt.Sprintf("device %q is ambiguous across %d locations", deviceName, len(owners)))
	}

	c, _ := s.registry.Get(owners[0])
	return c, nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func attendancePath(start, end time.Time, holidays []string) string {
	q := url.Values{}
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	if len(holidays) > 0 {
		q.Set("holidays", strings.Join(holidays, ","))
	}
	return "/attendance?" + q.Encode()
}

func summaryPath(start, end time.Time, holidays []string) string {
	q := url.Values{}
	q.Set("start", start.Format("2006-01-02"))
	q.Set("end", end.Format("2006-01-02"))
	if len(holidays) > 0 {
		q.Set("holidays", strings.Join(holidays, ","))
	}
	return "/attendance/summary?" + q.Encode()
}
