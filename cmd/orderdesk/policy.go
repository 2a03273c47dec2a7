package main

import (
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2/persist"

	"github.com/CameronXie/order-desk/internal/config"
	"github.com/CameronXie/order-desk/internal/decisionmaker"
	"github.com/CameronXie/order-desk/internal/enforcer"
	"github.com/CameronXie/order-desk/internal/policyretriever"

	pdpcasbin "github.com/CameronXie/order-desk/internal/decisionmaker/casbin"
	pdpopa "github.com/CameronXie/order-desk/internal/decisionmaker/opa"
	prp "github.com/CameronXie/order-desk/internal/policyretriever/opa"
)

// newEnforcer builds the action policy enforcer selected by policy.engine.
func newEnforcer(cfg *config.PolicyConfig, logger *slog.Logger) (enforcer.Enforcer, error) {
	var (
		dm  decisionmaker.DecisionMaker
		err error
	)

	switch cfg.Engine {
	case config.PolicyEngineOPA:
		dm = newOPADecisionMaker(cfg, logger)
	default:
		dm, err = newCasbinDecisionMaker(cfg, logger)
	}
	if err != nil {
		return nil, err
	}

	return enforcer.NewEnforcer(dm), nil
}

func newCasbinDecisionMaker(cfg *config.PolicyConfig, logger *slog.Logger) (decisionmaker.DecisionMaker, error) {
	var adapter persist.Adapter
	if cfg.MySQLDSN != "" {
		logger.Info("initializing enforcer with Casbin and MySQL policy storage")

		a, err := pdpcasbin.NewMySQLAdapter(cfg.MySQLDSN, pdpcasbin.DefaultPolicies)
		if err != nil {
			return nil, fmt.Errorf("failed to create casbin mysql adapter: %w", err)
		}
		adapter = a
	} else {
		logger.Info("initializing enforcer with Casbin")
		adapter = pdpcasbin.NewStringAdapter(pdpcasbin.DefaultPolicies)
	}

	return pdpcasbin.NewDecisionMaker(pdpcasbin.Model, adapter)
}

func newOPADecisionMaker(cfg *config.PolicyConfig, logger *slog.Logger) decisionmaker.DecisionMaker {
	var retriever policyretriever.PolicyRetriever
	if cfg.RegoPath != "" {
		logger.Info("initializing enforcer with OPA", "policy", cfg.RegoPath)
		retriever = prp.NewFilePolicyRetriever(cfg.RegoPath)
	} else {
		logger.Info("initializing enforcer with OPA")
		retriever = prp.NewHardcodedPolicyRetriever(pdpopa.DefaultPolicy)
	}

	return pdpopa.NewDecisionMaker(retriever, pdpopa.DefaultQuery)
}
