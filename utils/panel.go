package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// PanelClient talks to the hosting panel's application API. Resource
// limits (ram/cpu/disk) and feature limits (backups/allocations) live in
// different parts of the build payload; callers pick the right one.
type PanelClient struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	locations []int64
}

// Global panel client instance
var Panel *PanelClient

// InitializePanel initializes the global panel client from the environment
func InitializePanel() {
	Panel = NewPanelClient(os.Getenv("PANEL_URL"), os.Getenv("PANEL_API_KEY"))
	if Panel != nil {
		Panel.locations = parseLocations(os.Getenv("PANEL_LOCATIONS"))
	}
}

// NewPanelClient creates a panel client, or nil when not configured
func NewPanelClient(baseURL, apiKey string) *PanelClient {
	if baseURL == "" || apiKey == "" {
		return nil
	}
	return &PanelClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: PanelRequestTimeout,
		},
		locations: []int64{1},
	}
}

// parseLocations reads a comma-separated location id list, falling back to
// location 1 when unset or unparseable.
func parseLocations(raw string) []int64 {
	if raw == "" {
		return []int64{1}
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			log.Printf("Ignoring invalid PANEL_LOCATIONS entry %q", part)
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return []int64{1}
	}
	return ids
}

// ServerLimits is the resource-limits block of a server build
type ServerLimits struct {
	Memory int `json:"memory"`
	Swap   int `json:"swap"`
	Disk   int `json:"disk"`
	IO     int `json:"io"`
	CPU    int `json:"cpu"`
}

// FeatureLimits is the feature-limits block of a server build
type FeatureLimits struct {
	Databases   int `json:"databases"`
	Allocations int `json:"allocations"`
	Backups     int `json:"backups"`
}

// Server is a provisioned server as reported by the panel
type Server struct {
	ID            int64         `json:"id"`
	Identifier    string        `json:"identifier"`
	Name          string        `json:"name"`
	AllocationID  int64         `json:"allocation"`
	Limits        ServerLimits  `json:"limits"`
	FeatureLimits FeatureLimits `json:"feature_limits"`
}

// BuildUpdate is the payload for PATCH /servers/:id/build
type BuildUpdate struct {
	AllocationID  int64         `json:"allocation"`
	Memory        int           `json:"memory"`
	Swap          int           `json:"swap"`
	Disk          int           `json:"disk"`
	IO            int           `json:"io"`
	CPU           int           `json:"cpu"`
	FeatureLimits FeatureLimits `json:"feature_limits"`
}

// BuildFromServer seeds a build update with a server's current configuration
func BuildFromServer(srv *Server) BuildUpdate {
	return BuildUpdate{
		AllocationID:  srv.AllocationID,
		Memory:        srv.Limits.Memory,
		Swap:          srv.Limits.Swap,
		Disk:          srv.Limits.Disk,
		IO:            srv.Limits.IO,
		CPU:           srv.Limits.CPU,
		FeatureLimits: srv.FeatureLimits,
	}
}

// Nest is a server category on the panel
type Nest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Egg is a server template within a nest
type Egg struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DockerImage string `json:"docker_image"`
	Startup     string `json:"startup"`
}

// Node is one machine servers deploy onto
type Node struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Allocation is one ip:port slot on a node
type Allocation struct {
	ID       int64  `json:"id"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Assigned bool   `json:"assigned"`
}

// PanelUser is the panel-side account a server is owned by
type PanelUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CreateUserRequest is the payload for POST /users
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DeployConfig asks the panel to pick an allocation itself, used when no
// free allocation is known up front.
type DeployConfig struct {
	Locations   []int64  `json:"locations"`
	PortRange   []string `json:"port_range"`
	DedicatedIP bool     `json:"dedicated_ip"`
}

// AllocationRef pins a server to a known allocation
type AllocationRef struct {
	Default int64 `json:"default"`
}

// CreateServerRequest is the payload for POST /servers. Exactly one of
// Allocation or Deploy should be set.
type CreateServerRequest struct {
	Name          string            `json:"name"`
	UserID        int64             `json:"user"`
	EggID         int64             `json:"egg"`
	DockerImage   string            `json:"docker_image"`
	Startup       string            `json:"startup"`
	Environment   map[string]string `json:"environment"`
	Limits        ServerLimits      `json:"limits"`
	FeatureLimits FeatureLimits     `json:"feature_limits"`
	Allocation    *AllocationRef    `json:"allocation,omitempty"`
	Deploy        *DeployConfig     `json:"deploy,omitempty"`
}

type attributesEnvelope struct {
	Object     string          `json:"object"`
	Attributes json.RawMessage `json:"attributes"`
}

type listEnvelope struct {
	Object string               `json:"object"`
	Data   []attributesEnvelope `json:"data"`
}

// do performs one panel request. Non-2xx responses and transport errors
// come back as ExternalApplyError carrying the response detail for logs.
func (c *PanelClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	if c == nil {
		return ErrPanelUnavailable
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode panel request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create panel request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.pterodactyl.v1+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &ExternalApplyError{Status: 0, Detail: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &ExternalApplyError{Status: resp.StatusCode, Detail: string(detail)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode panel response: %w", err)
		}
	}
	return nil
}

func (c *PanelClient) getAttributes(ctx context.Context, path string, out interface{}) error {
	var envelope attributesEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return err
	}
	if err := json.Unmarshal(envelope.Attributes, out); err != nil {
		return fmt.Errorf("failed to decode panel attributes: %w", err)
	}
	return nil
}

// GetServer fetches a server's current configuration
func (c *PanelClient) GetServer(ctx context.Context, serverID string) (*Server, error) {
	srv := &Server{}
	if err := c.getAttributes(ctx, "/api/application/servers/"+serverID, srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// GetServerBuild fetches the build view of a server
func (c *PanelClient) GetServerBuild(ctx context.Context, serverID string) (*Server, error) {
	srv := &Server{}
	if err := c.getAttributes(ctx, "/api/application/servers/"+serverID+"/build", srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// UpdateServerBuild pushes a new build configuration to the panel
func (c *PanelClient) UpdateServerBuild(ctx context.Context, serverID string, build BuildUpdate) error {
	return c.do(ctx, http.MethodPatch, "/api/application/servers/"+serverID+"/build", build, nil)
}

// ListNests fetches the panel's server categories
func (c *PanelClient) ListNests(ctx context.Context) ([]Nest, error) {
	var envelope listEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/application/nests", nil, &envelope); err != nil {
		return nil, err
	}
	nests := make([]Nest, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		var nest Nest
		if err := json.Unmarshal(item.Attributes, &nest); err != nil {
			return nil, fmt.Errorf("failed to decode nest: %w", err)
		}
		nests = append(nests, nest)
	}
	return nests, nil
}

// ListEggs fetches the templates of one nest
func (c *PanelClient) ListEggs(ctx context.Context, nestID int64) ([]Egg, error) {
	var envelope listEnvelope
	path := fmt.Sprintf("/api/application/nests/%d/eggs", nestID)
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	eggs := make([]Egg, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		var egg Egg
		if err := json.Unmarshal(item.Attributes, &egg); err != nil {
			return nil, fmt.Errorf("failed to decode egg: %w", err)
		}
		eggs = append(eggs, egg)
	}
	return eggs, nil
}

// ListNodes fetches the panel's nodes
func (c *PanelClient) ListNodes(ctx context.Context) ([]Node, error) {
	var envelope listEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/application/nodes", nil, &envelope); err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		var node Node
		if err := json.Unmarshal(item.Attributes, &node); err != nil {
			return nil, fmt.Errorf("failed to decode node: %w", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// ListAllocations fetches the allocations of one node
func (c *PanelClient) ListAllocations(ctx context.Context, nodeID int64) ([]Allocation, error) {
	var envelope listEnvelope
	path := fmt.Sprintf("/api/application/nodes/%d/allocations", nodeID)
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	allocations := make([]Allocation, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		var allocation Allocation
		if err := json.Unmarshal(item.Attributes, &allocation); err != nil {
			return nil, fmt.Errorf("failed to decode allocation: %w", err)
		}
		allocations = append(allocations, allocation)
	}
	return allocations, nil
}

// FindFreeAllocation scans the nodes for the first unassigned allocation.
// Returns 0 when every allocation is taken.
func (c *PanelClient) FindFreeAllocation(ctx context.Context) (int64, error) {
	nodes, err := c.ListNodes(ctx)
	if err != nil {
		return 0, err
	}
	for _, node := range nodes {
		allocations, err := c.ListAllocations(ctx, node.ID)
		if err != nil {
			return 0, err
		}
		for _, allocation := range allocations {
			if !allocation.Assigned {
				return allocation.ID, nil
			}
		}
	}
	return 0, nil
}

// CreateUser creates a panel-side user
func (c *PanelClient) CreateUser(ctx context.Context, req CreateUserRequest) (*PanelUser, error) {
	var envelope attributesEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/application/users", req, &envelope); err != nil {
		return nil, err
	}
	user := &PanelUser{}
	if err := json.Unmarshal(envelope.Attributes, user); err != nil {
		return nil, fmt.Errorf("failed to decode panel user: %w", err)
	}
	return user, nil
}

// CreateServer provisions a new server
func (c *PanelClient) CreateServer(ctx context.Context, req CreateServerRequest) (*Server, error) {
	var envelope attributesEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/application/servers", req, &envelope); err != nil {
		return nil, err
	}
	srv := &Server{}
	if err := json.Unmarshal(envelope.Attributes, srv); err != nil {
		return nil, fmt.Errorf("failed to decode created server: %w", err)
	}
	return srv, nil
}

// DeleteServer removes a server from the panel
func (c *PanelClient) DeleteServer(ctx context.Context, serverID string) error {
	return c.do(ctx, http.MethodDelete, "/api/application/servers/"+serverID, nil, nil)
}
