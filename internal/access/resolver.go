package access

import (
	"context"

	"github.com/google/uuid"

	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/db/models"
	"github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/enums"
	pkgerrors "github.com/kevinhervieux-koveo/koveo-gestion-saas-sub008/pkg/errors"
)

// Scope anchors an access check to a node in the property hierarchy.
type Scope struct {
	Kind enums.ScopeKind
	ID   uuid.UUID
}

// edgeLister reads the user's active membership edges.
type edgeLister interface {
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.MembershipEdge, error)
}

// overrideLister reads the user's permission overrides.
type overrideLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.PermissionOverride, error)
}

// hierarchyReader resolves containment so edges can reach scopes
// transitively: a building edge reaches the residences inside it, an
// all-access organization edge reaches everything underneath.
type hierarchyReader interface {
	BuildingOrganization(ctx context.Context, buildingID uuid.UUID) (uuid.UUID, error)
	ResidenceBuilding(ctx context.Context, residenceID uuid.UUID) (uuid.UUID, error)
}

// Resolver computes effective permission sets.
type Resolver struct {
	edges     edgeLister
	overrides overrideLister
	hierarchy hierarchyReader
}

// ResolverParams packages the resolver dependencies.
type ResolverParams struct {
	Edges     edgeLister
	Overrides overrideLister
	Hierarchy hierarchyReader
}

// NewResolver builds a Resolver with the provided dependencies.
func NewResolver(params ResolverParams) (*Resolver, error) {
	if params.Edges == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "edge lister required")
	}
	if params.Overrides == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "override lister required")
	}
	if params.Hierarchy == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "hierarchy reader required")
	}
	return &Resolver{
		edges:     params.Edges,
		overrides: params.Overrides,
		hierarchy: params.Hierarchy,
	}, nil
}

// Resolve computes the effective permission set for the user at the given
// scope. A nil scope resolves global permissions only.
//
// The composition order is fixed: role defaults, then scope narrowing, then
// overrides. When membership edges at different scope levels disagree, the
// broader-scope higher-privilege edge wins and narrower edges only add
// permissions; the union over reaching edges gives exactly that behavior.
func (r *Resolver) Resolve(ctx context.Context, user *models.User, scope *Scope) (PermissionSet, error) {
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user required")
	}
	if !user.IsActive {
		return NewPermissionSet(), nil
	}

	set := DefaultsFor(user.Role)

	if scope != nil && !user.Role.IsAdmin() {
		reaching, err := r.reachingEdges(ctx, user.ID, *scope)
		if err != nil {
			return nil, err
		}
		if len(reaching) == 0 {
			set = NewPermissionSet()
		} else {
			for _, edge := range reaching {
				set.Union(DefaultsFor(edge.Role))
			}
		}
	}

	overrides, err := r.overrides.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list permission overrides")
	}
	for _, o := range overrides {
		if o.Granted {
			set.Add(o.Permission)
		} else {
			set.Remove(o.Permission)
		}
	}

	return set, nil
}

// Can reports whether the user holds the permission at the scope.
func (r *Resolver) Can(ctx context.Context, user *models.User, scope *Scope, perm enums.Permission) (bool, error) {
	set, err := r.Resolve(ctx, user, scope)
	if err != nil {
		return false, err
	}
	return set.Has(perm), nil
}

// Require returns a forbidden error when the user lacks the permission.
func (r *Resolver) Require(ctx context.Context, user *models.User, scope *Scope, perm enums.Permission) error {
	ok, err := r.Can(ctx, user, scope, perm)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "insufficient permission")
	}
	return nil
}

// reachingEdges filters the user's active edges down to those that reach the
// target scope, directly or through containment.
func (r *Resolver) reachingEdges(ctx context.Context, userID uuid.UUID, scope Scope) ([]models.MembershipEdge, error) {
	edges, err := r.edges.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list membership edges")
	}
	if len(edges) == 0 {
		return nil, nil
	}

	chain, err := r.containmentChain(ctx, scope)
	if err != nil {
		return nil, err
	}

	var reaching []models.MembershipEdge
	for _, edge := range edges {
		if edgeReaches(edge, scope, chain) {
			reaching = append(reaching, edge)
		}
	}
	return reaching, nil
}

// containment identifies the ancestors of a scope.
type containment struct {
	buildingID     *uuid.UUID
	organizationID *uuid.UUID
}

func (r *Resolver) containmentChain(ctx context.Context, scope Scope) (containment, error) {
	var chain containment
	switch scope.Kind {
	case enums.ScopeOrganization:
		id := scope.ID
		chain.organizationID = &id
	case enums.ScopeBuilding:
		id := scope.ID
		chain.buildingID = &id
		orgID, err := r.hierarchy.BuildingOrganization(ctx, scope.ID)
		if err != nil {
			return chain, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve building organization")
		}
		chain.organizationID = &orgID
	case enums.ScopeResidence:
		buildingID, err := r.hierarchy.ResidenceBuilding(ctx, scope.ID)
		if err != nil {
			return chain, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve residence building")
		}
		chain.buildingID = &buildingID
		orgID, err := r.hierarchy.BuildingOrganization(ctx, buildingID)
		if err != nil {
			return chain, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve building organization")
		}
		chain.organizationID = &orgID
	default:
		return chain, pkgerrors.New(pkgerrors.CodeValidation, "invalid scope kind")
	}
	return chain, nil
}

func edgeReaches(edge models.MembershipEdge, scope Scope, chain containment) bool {
	if edge.ScopeKind == scope.Kind && edge.ScopeID == scope.ID {
		return true
	}
	switch edge.ScopeKind {
	case enums.ScopeOrganization:
		// Organization edges reach descendants only with the all-access flag.
		return edge.AllAccess && chain.organizationID != nil && *chain.organizationID == edge.ScopeID
	case enums.ScopeBuilding:
		// Building edges reach the residences they contain.
		return scope.Kind == enums.ScopeResidence && chain.buildingID != nil && *chain.buildingID == edge.ScopeID
	default:
		return false
	}
}
