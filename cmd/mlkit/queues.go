package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/viant/mlkit/model/capacity"
	"github.com/viant/mlkit/service/platform"
)

var queuesName string

func init() {
	rootCmd.AddCommand(queuesCmd)
	queuesCmd.Flags().StringVar(&queuesName, "name", "", "Filter queues by name.")
}

var queuesCmd = &cobra.Command{
	Use:          "queues",
	Short:        "List resource queues with their capacity headroom.",
	RunE:         runQueues,
	SilenceUsage: true,
}

func runQueues(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, err := newService(ctx)
	if err != nil {
		return err
	}
	defer service.Close()

	queues, err := service.ListQueues(ctx, &platform.ListQuery{Name: queuesName})
	if err != nil {
		return err
	}
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tNAME\tZONE\tSTATE\tCPU\tMEMORY\tGPU\tVOLUMES")
	for _, queue := range queues {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%d/%d\t%d/%d\t%s\t%d\n",
			queue.ID, queue.Name, queue.ZoneID, queue.State,
			queue.VacantCPU(), queue.TotalCPU(),
			queue.VacantMemory(), queue.TotalMemory(),
			gpuHeadroom(queue), queue.VacantVolume())
	}
	return writer.Flush()
}

// gpuHeadroom summarises vacant/total GPUs per type, e.g. "A100:6/8".
func gpuHeadroom(queue *capacity.Queue) string {
	if len(queue.QuotaCapability.GPUResources) == 0 {
		return "-"
	}
	types := make([]string, 0, len(queue.QuotaCapability.GPUResources))
	for gpuType := range queue.QuotaCapability.GPUResources {
		types = append(types, gpuType)
	}
	sort.Strings(types)
	parts := make([]string, 0, len(types))
	for _, gpuType := range types {
		parts = append(parts, fmt.Sprintf("%s:%d/%d", gpuType, queue.VacantGPU(gpuType), queue.TotalGPU(gpuType)))
	}
	return strings.Join(parts, " ")
}
