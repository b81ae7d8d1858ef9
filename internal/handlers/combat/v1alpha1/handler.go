// Package v1alpha1 serves the combat encounter service over gRPC. Messages
// are google.protobuf.Struct values carrying the json shapes in messages.go.
package v1alpha1

import (
	"bytes"
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/orchestrators/encounter"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "rpgtracker.combat.v1alpha1.CombatService"

// HandlerConfig holds dependencies for the combat handler
type HandlerConfig struct {
	EncounterService encounter.Service
}

// Validate ensures all required dependencies are present
func (c *HandlerConfig) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config is required")
	}
	if c.EncounterService == nil {
		return errors.InvalidArgument("encounter service is required")
	}
	return nil
}

// Handler implements the combat gRPC service
type Handler struct {
	encounterService encounter.Service
}

// NewHandler creates a new combat handler with the given configuration
func NewHandler(cfg *HandlerConfig) (*Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Handler{encounterService: cfg.EncounterService}, nil
}

// Register adds the service to a gRPC server
func Register(s grpc.ServiceRegistrar, h *Handler) {
	s.RegisterService(&ServiceDesc, h)
}

// ServiceDesc describes the combat service for grpc.Server
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateEncounter", (*Handler).CreateEncounter),
		unary("GetEncounter", (*Handler).GetEncounter),
		unary("StartEncounter", (*Handler).StartEncounter),
		unary("EndEncounter", (*Handler).EndEncounter),
		unary("AddCombatant", (*Handler).AddCombatant),
		unary("RemoveCombatant", (*Handler).RemoveCombatant),
		unary("RollInitiative", (*Handler).RollInitiative),
		unary("SetInitiative", (*Handler).SetInitiative),
		unary("SortByInitiative", (*Handler).SortByInitiative),
		unary("NextTurn", (*Handler).NextTurn),
		unary("PreviousTurn", (*Handler).PreviousTurn),
		unary("ApplyDamage", (*Handler).ApplyDamage),
		unary("ApplyHealing", (*Handler).ApplyHealing),
		unary("SetTempHP", (*Handler).SetTempHP),
		unary("RecordDeathSave", (*Handler).RecordDeathSave),
		unary("RollDeathSave", (*Handler).RollDeathSave),
		unary("StartConcentration", (*Handler).StartConcentration),
		unary("EndConcentration", (*Handler).EndConcentration),
		unary("AddCondition", (*Handler).AddCondition),
		unary("RemoveCondition", (*Handler).RemoveCondition),
		unary("ApplyEffect", (*Handler).ApplyEffect),
		unary("DispelEffect", (*Handler).DispelEffect),
		unary("ResolveSave", (*Handler).ResolveSave),
		unary("InitializeSpellPool", (*Handler).InitializeSpellPool),
		unary("UseSpellSlot", (*Handler).UseSpellSlot),
		unary("RestoreSpellSlot", (*Handler).RestoreSpellSlot),
		unary("Rest", (*Handler).Rest),
		unary("CastSpell", (*Handler).CastSpell),
		unary("RecordAttack", (*Handler).RecordAttack),
		unary("AddNote", (*Handler).AddNote),
		unary("GetLog", (*Handler).GetLog),
		unary("RateEncounter", (*Handler).RateEncounter),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchLog",
			Handler:       watchLogHandler,
			ServerStreams: true,
		},
	},
	Metadata: "rpgtracker/combat/v1alpha1/combat.proto",
}

// FullMethod returns the gRPC path of a method
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary adapts a typed handler method to a Struct-in, Struct-out gRPC method.
// Service errors leave through errors.ToGRPCError.
func unary[Req, Resp any](name string, fn func(*Handler, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, msg any) (any, error) {
				req := new(Req)
				if err := decode(msg.(*structpb.Struct), req); err != nil {
					return nil, errors.ToGRPCError(err)
				}
				resp, err := fn(srv.(*Handler), ctx, req)
				if err != nil {
					return nil, errors.ToGRPCError(err)
				}
				out, err := encode(resp)
				if err != nil {
					return nil, errors.ToGRPCError(err)
				}
				return out, nil
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, call)
		},
	}
}

// decode reads a Struct into a request. Unknown fields are rejected.
func decode(s *structpb.Struct, v any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to read request")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.WrapWithCode(err, errors.CodeInvalidArgument, "malformed request")
	}
	return nil
}

// encode writes any json-shaped value into a Struct
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInternal, "failed to encode message")
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInternal, "failed to encode message")
	}
	return out, nil
}
