// Package langfeatures is the host composition point for language feature
// providers.
//
// A Service owns one feature registry per feature kind and a single score
// refinement policy shared by all of them:
//
//	svc := langfeatures.New(langfeatures.WithLogger(logger))
//	defer svc.Close()
//
//	reg, _ := svc.Register(feature.Hover, selector.ContentType("json"), jsonHover)
//	defer reg.Dispose()
//
//	providers := svc.Registry(feature.Hover).Ordered(selector.Document{
//		Location:    "file:///work/package.json",
//		ContentType: "json",
//	})
//
// Installing a refine function with SetScoreRefineFunction changes the
// ordering of every registry at once. Contribution manifests are registered
// in bulk with LoadManifest.
package langfeatures
