package graph

import (
	"fmt"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lockcheck/lockcheck/analysis/guard"
	"github.com/lockcheck/lockcheck/utils/dot"
)

const (
	lockClusterKey = "$locks"
	sharedPackage  = "$shared_pkg"
)

func packagePath(pkg *types.Package) string {
	if pkg == nil {
		return sharedPackage
	}
	return pkg.Path()
}

func makePkgCluster(pkg *types.Package, clusterMap map[string]*dot.DotCluster) *dot.DotCluster {
	var key, label string
	if pkg != nil {
		key = pkg.Path()
		label = pkg.Name()
	} else {
		key = sharedPackage
		label = "Shared package"
	}
	if _, ok := clusterMap[key]; !ok {
		c := dot.NewDotCluster(key)
		c.Attrs = dot.DotAttrs{
			"penwidth":  "0.8",
			"fontsize":  "24",
			"label":     label,
			"style":     "filled",
			"fillcolor": "#cff3ff",
			"fontname":  "Tahoma bold",
			"tooltip":   fmt.Sprintf("package: %s", key),
			"rank":      "sink",
		}
		clusterMap[key] = c
	}
	return clusterMap[key]
}

func makeLockCluster(parent *dot.DotCluster) *dot.DotCluster {
	key := parent.ID
	clusters := parent.Clusters
	if _, ok := clusters[lockClusterKey]; !ok {
		c := dot.NewDotCluster(parent.ID + ":$locks")
		c.Attrs = dot.DotAttrs{
			"penwidth":  "0.8",
			"fontsize":  "16",
			"label":     "Locks",
			"style":     "filled",
			"fillcolor": "pink",
			"fontname":  "Tahoma bold",
			"tooltip":   fmt.Sprintf("Lock expressions guarding members of: %s", key),
			"rank":      "sink",
		}
		clusters[lockClusterKey] = c
	}
	return clusters[lockClusterKey]
}

// BuildGraph lays out the binding of annotated members to their guards as a
// dot graph, with one cluster per package and a sub-cluster collecting the
// lock expressions guarding that package's members.
func BuildGraph(
	fset *token.FileSet,
	fieldGuards map[*types.Var]guard.Expression,
	funcGuards map[*types.Func]guard.Expression,
) *dot.DotGraph {
	getPosString := func(tok token.Pos, fallback string) string {
		if pos := fset.Position(tok); pos.IsValid() {
			return pos.String()
		}

		return fallback
	}

	var (
		edges    []*dot.DotEdge
		clusters []*dot.DotCluster
	)

	nodeMap := make(map[string]*dot.DotNode)
	clusterMap := make(map[string]*dot.DotCluster)

	type guarded struct {
		obj  types.Object
		kind string
		g    guard.Expression
	}

	var members []guarded
	for field, g := range fieldGuards {
		members = append(members, guarded{field, "field", g})
	}
	for fun, g := range funcGuards {
		members = append(members, guarded{fun, "func", g})
	}

	sort.Slice(members, func(i, j int) bool {
		return members[i].obj.Pos() < members[j].obj.Pos()
	})

	for _, m := range members {
		pkg := m.obj.Pkg()
		cluster := makePkgCluster(pkg, clusterMap)

		mkey := strings.Replace(
			getPosString(m.obj.Pos(), packagePath(pkg)+"_"+m.obj.Name()),
			string(filepath.Separator), "/", -1)

		n, ok := nodeMap[mkey]
		if !ok {
			n = &dot.DotNode{
				ID:    mkey,
				Attrs: make(dot.DotAttrs),
			}
			n.Attrs["label"] = m.obj.Name()
			n.Attrs["tooltip"] = fmt.Sprintf("%s %s declared at %s",
				m.kind, m.obj.Name(), getPosString(m.obj.Pos(), "-"))
			if m.kind == "func" {
				n.Attrs["fillcolor"] = "lightblue"
				n.Attrs["shape"] = "box"
			}

			nodeMap[mkey] = n
			cluster.Nodes = append(cluster.Nodes, n)
		}

		gkey := packagePath(pkg) + ":" + guard.Debug(m.g)
		gn, ok := nodeMap[gkey]
		if !ok {
			gn = &dot.DotNode{
				ID:    gkey,
				Attrs: make(dot.DotAttrs),
			}
			gn.Attrs["label"] = m.g.String()
			gn.Attrs["fillcolor"] = "gold"
			gn.Attrs["tooltip"] = guard.Debug(m.g)

			nodeMap[gkey] = gn
			makeLockCluster(cluster).Nodes = append(makeLockCluster(cluster).Nodes, gn)
		}

		edge := &dot.DotEdge{
			From:  n,
			To:    gn,
			Attrs: make(dot.DotAttrs),
		}
		edge.Attrs["arrowhead"] = "vee"
		edge.Attrs["tooltip"] = fmt.Sprintf("%s is guarded by %s", m.obj.Name(), m.g)
		edges = append(edges, edge)
	}

	for _, c := range clusterMap {
		clusters = append(clusters, c)
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].ID < clusters[j].ID
	})

	dotG := &dot.DotGraph{
		Title:    "Guard bindings",
		Clusters: clusters,
		Edges:    edges,
		Options: map[string]string{
			"minlen":  "2",
			"nodesep": "0.35",
		},
	}

	fmt.Printf("Clusters: %d\nNodes: %d\nEdges: %d\n",
		len(clusters), len(nodeMap), len(edges))

	return dotG
}
