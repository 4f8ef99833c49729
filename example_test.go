package tierguard_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/catalog/catalogtest"
	"github.com/xraph/tierguard/permission"
	"github.com/xraph/tierguard/store/memory"
)

func ExampleEngine() {
	ctx := context.Background()
	eng, err := tierguard.NewEngine(
		tierguard.WithStore(memory.New()),
		tierguard.WithCatalogSeed(catalogtest.Seed()),
		tierguard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		panic(err)
	}
	if err := eng.Start(ctx); err != nil {
		panic(err)
	}
	roi := permission.PageRef(catalogtest.PageROI)

	// Mid users may never reach a critical page.
	sess := eng.OpenSession()
	_, _ = sess.QueueChange(ctx, roi, permission.TierMid, permission.ReadOnly, "")
	_, err = sess.CommitAll(ctx, tierguard.CommitOptions{AcknowledgeWarnings: true})
	fmt.Println(errors.Is(err, tierguard.ErrValidationFailed))

	_, _ = sess.DiscardAll()
	_, _ = sess.QueueChange(ctx, roi, permission.TierSenior, permission.Full, "quarterly review")
	report, _ := sess.CommitAll(ctx, tierguard.CommitOptions{})
	fmt.Println(len(report.Committed))

	res, _ := eng.EffectivePermission(ctx, permission.FieldRef(catalogtest.FieldTotalRevenue), permission.TierSenior)
	fmt.Println(res.Value, res.IsInherited)
	// Output:
	// true
	// 1
	// full true
}

func ExampleEngine_Can() {
	ctx := context.Background()
	eng, _ := tierguard.NewEngine(
		tierguard.WithStore(memory.New()),
		tierguard.WithCatalogSeed(catalogtest.Seed()),
		tierguard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	_ = eng.Start(ctx)

	_, _ = eng.ApplyPermission(ctx, tierguard.ApplyRequest{
		Ref:        permission.PageRef(catalogtest.PageSales),
		Tier:       permission.TierMid,
		Permission: permission.Full,
	})

	contact := permission.FieldRef(catalogtest.FieldClientContact)
	canRead, _ := eng.Can(ctx, permission.TierMid, contact, permission.CapRead)
	canUpdate, _ := eng.Can(ctx, permission.TierMid, contact, permission.CapUpdate)
	fmt.Println(canRead, canUpdate)
	// Output:
	// true false
}
