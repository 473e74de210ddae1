package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/parse"
)

const workDataPath = "/classes/WorkData"

// Parse stores the account in the WorkData class, one object per user,
// referenced by a "user" pointer.
type Parse struct {
	client *parse.Client
	now    func() time.Time

	mu        sync.Mutex
	objectIDs map[string]string
}

func NewParse(client *parse.Client) *Parse {
	return &Parse{client: client, now: time.Now, objectIDs: make(map[string]string)}
}

type workDataObject struct {
	ObjectID string `json:"objectId"`
	Document
}

func (p *Parse) Load(ctx context.Context, id domain.Identity) (domain.Snapshot, error) {
	obj, err := p.find(ctx, id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if obj == nil {
		return domain.Snapshot{}, fmt.Errorf("parse account %s: %w", id.UserID, ErrNotFound)
	}
	return obj.Snapshot(), nil
}

func (p *Parse) Save(ctx context.Context, id domain.Identity, snap domain.Snapshot) error {
	objectID, err := p.objectID(ctx, id)
	if err != nil {
		return err
	}

	doc := NewDocument(snap)
	lastModified := p.now()
	if snap.LastModified != nil {
		lastModified = *snap.LastModified
	}
	body := map[string]any{
		"sessions":          doc.Sessions,
		"activeSessions":    doc.ActiveSessions,
		"customTargetHours": doc.CustomTargetHours,
		"lastModified":      parse.NewDate(lastModified),
	}

	req := parse.Request{Path: workDataPath, SessionToken: id.Token, Body: body}
	if objectID != "" {
		req.Method = http.MethodPut
		req.Path = workDataPath + "/" + objectID
		if err := p.client.Do(ctx, req, nil); err != nil {
			return fmt.Errorf("updating WorkData: %w", err)
		}
		return nil
	}

	body["user"] = parse.UserPointer(id.UserID)
	req.Method = http.MethodPost
	var created struct {
		ObjectID string `json:"objectId"`
	}
	if err := p.client.Do(ctx, req, &created); err != nil {
		return fmt.Errorf("creating WorkData: %w", err)
	}
	p.remember(id.UserID, created.ObjectID)
	return nil
}

func (p *Parse) objectID(ctx context.Context, id domain.Identity) (string, error) {
	p.mu.Lock()
	cached, ok := p.objectIDs[id.UserID]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}
	obj, err := p.find(ctx, id)
	if err != nil {
		return "", err
	}
	if obj == nil {
		return "", nil
	}
	return obj.ObjectID, nil
}

func (p *Parse) find(ctx context.Context, id domain.Identity) (*workDataObject, error) {
	where, err := parse.Where(map[string]any{"user": parse.UserPointer(id.UserID)})
	if err != nil {
		return nil, err
	}

	var out struct {
		Results []workDataObject `json:"results"`
	}
	err = p.client.Do(ctx, parse.Request{
		Method:       http.MethodGet,
		Path:         workDataPath,
		SessionToken: id.Token,
		Query:        map[string]string{"where": where, "limit": "1"},
	}, &out)
	if err != nil {
		if errors.Is(err, parse.ErrUnavailable) {
			return nil, fmt.Errorf("querying WorkData: %w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("querying WorkData: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	obj := out.Results[0]
	p.remember(id.UserID, obj.ObjectID)
	return &obj, nil
}

func (p *Parse) remember(userID, objectID string) {
	if objectID == "" {
		return
	}
	p.mu.Lock()
	p.objectIDs[userID] = objectID
	p.mu.Unlock()
}
